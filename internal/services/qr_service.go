package services

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/simplebank/backend/internal/ledger"
	"github.com/skip2/go-qrcode"
)

// QRService produces scannable "receive" codes: a sender scans the code to
// prefill the receiver's account number and display name in a transfer.
type QRService struct {
	engine *ledger.Engine
	redis  *redis.Client
}

func NewQRService(engine *ledger.Engine, redisClient *redis.Client) *QRService {
	return &QRService{engine: engine, redis: redisClient}
}

// ReceiveQR generates a receive code for the caller's account
// @Summary Generate receive QR code
// @Description QR code carrying the caller's account number and name for incoming transfers
// @Tags account
// @Produce json
// @Success 200 {object} object{qrCode=string,qrImage=string}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /account/receive-qr [get]
func (s *QRService) ReceiveQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := s.engine.Account(r.Context(), userID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	payload := map[string]any{
		"accountNumber": account.Number,
		"accountName":   account.Name,
		"timestamp":     time.Now().Unix(),
		"nonce":         generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	if s.redis != nil {
		key := "qr:" + code
		if err := s.redis.Set(r.Context(), key, jsonData, 5*time.Minute).Err(); err != nil {
			log.Printf("[QR] Failed to cache QR payload for account %s: %v", account.Number, err)
		}
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"qrCode":  code,
		"qrImage": base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
