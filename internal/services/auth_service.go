package services

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/events"
	"github.com/simplebank/backend/internal/models"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	publisher events.Publisher
	validator *validator.Validate
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	FullName    string `json:"fullName" validate:"required,min=2" example:"John Doe"`         // User full name
	Email       string `json:"email" validate:"required,email" example:"user@example.com"`    // User email address
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7" example:"+2348012345678"` // Phone number (also derives the account number)
	Password    string `json:"password" validate:"required,min=6" example:"password123"`      // User password
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // User email
	Password string `json:"password" validate:"required,min=6" example:"password123"`   // User password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	User  models.User `json:"user"`                                                    // User information
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, publisher events.Publisher) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		publisher: publisher,
		validator: validator.New(),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a user and their single account in one transaction, then issue an email verification token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email, phone, or account name already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	userID := uuid.NewString()
	accountNumber := digitsOnly(req.PhoneNumber)

	// User and account are created together or not at all.
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("[AUTH] Transaction start failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO users (id, full_name, email, phone_number, password, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())`,
		userID, req.FullName, strings.ToLower(req.Email), req.PhoneNumber, hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			log.Printf("[AUTH] Duplicate registration for %s", req.Email)
			SendErrorResponse(w, "Email or phone number already registered", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] User creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	_, err = tx.Exec(`
		INSERT INTO accounts (id, user_id, account_number, account_name, account_type, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW(), NOW())`,
		uuid.NewString(), userID, accountNumber, req.FullName, models.AccountSavings, decimal.Zero)
	if err != nil {
		if isUniqueViolation(err) {
			SendErrorResponse(w, "Account number or name already exists", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] Account creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	if err = tx.Commit(); err != nil {
		log.Printf("[AUTH] Transaction commit failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] User created successfully - ID: %s, Email: %s", userID, req.Email)

	s.issueVerificationToken(r.Context(), strings.ToLower(req.Email))

	token, err := generateJWT(userID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	response := AuthResponse{
		Token: token,
		User: models.User{
			ID:          userID,
			FullName:    req.FullName,
			Email:       strings.ToLower(req.Email),
			PhoneNumber: req.PhoneNumber,
		},
	}

	log.Printf("[AUTH] Registration successful for user %s", userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var user models.User
	var hashedPassword string
	err := s.db.QueryRow(
		`SELECT id, full_name, email, phone_number, password, email_verified FROM users WHERE email = $1`,
		strings.ToLower(req.Email)).
		Scan(&user.ID, &user.FullName, &user.Email, &user.PhoneNumber, &hashedPassword, &user.EmailVerified)
	if err != nil {
		log.Printf("[AUTH] User not found for email: %s", req.Email)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for user: %s", req.Email)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := generateJWT(user.ID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %s: %v", user.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %s", user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and blacklist token until its expiry
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") && s.redis != nil {
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// Blacklist only for the token's remaining lifetime; an entry
		// that outlives the token is dead weight in redis.
		if remaining := tokenRemainingLifetime(token); remaining > 0 {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			if err := s.redis.Set(ctx, key, "1", remaining).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// VerifyEmail redeems an email verification token
// @Summary Verify email
// @Description Redeem the verification token issued at registration
// @Tags auth
// @Produce json
// @Param token path string true "Verification token"
// @Success 200 {object} map[string]string "Verification successful"
// @Failure 404 {object} ErrorResponse "Token does not exist or expired"
// @Router /auth/verify-email/{token} [get]
func (s *AuthService) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if s.redis == nil {
		SendErrorResponse(w, "Verification unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	ctx := r.Context()
	key := fmt.Sprintf("verify_token:%s", token)
	email, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		log.Printf("[AUTH] Verification token not found or expired: %s", token)
		SendErrorResponse(w, "Token does not exist", http.StatusNotFound, nil)
		return
	}

	if _, err := s.db.Exec(`UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE email = $1`, email); err != nil {
		log.Printf("[AUTH] Failed to mark %s verified: %v", email, err)
		SendErrorResponse(w, "Verification failed", http.StatusInternalServerError, nil)
		return
	}
	s.redis.Del(ctx, key)

	log.Printf("[AUTH] Email verified for %s", email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification successful"})
}

// GetUserAccount retrieves user account details from auth token
// @Summary Get user account details
// @Description Get authenticated user's profile and account information
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.User,account=models.Account}
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/account [get]
func (s *AuthService) GetUserAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var user models.User
	var account models.Account
	err := s.db.QueryRow(`
		SELECT u.id, u.full_name, u.email, u.phone_number, u.email_verified,
		       a.id, a.account_number, a.account_name, a.account_type, a.balance
		FROM users u
		JOIN accounts a ON a.user_id = u.id
		WHERE u.id = $1`, userID).
		Scan(&user.ID, &user.FullName, &user.Email, &user.PhoneNumber, &user.EmailVerified,
			&account.ID, &account.Number, &account.Name, &account.Type, &account.Balance)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[AUTH] Failed to fetch user details for %s: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch user details", http.StatusInternalServerError, nil)
		}
		return
	}
	account.UserID = user.ID

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"user": user, "account": account})
}

// issueVerificationToken stores a one-shot token in redis and publishes a
// verification event for the mail worker. Best effort; registration has
// already committed.
func (s *AuthService) issueVerificationToken(ctx context.Context, email string) {
	token := uuid.NewString()

	if s.redis != nil {
		key := fmt.Sprintf("verify_token:%s", token)
		if err := s.redis.Set(ctx, key, email, 24*time.Hour).Err(); err != nil {
			log.Printf("[AUTH] Failed to store verification token for %s: %v", email, err)
			return
		}
	}

	if s.publisher != nil {
		ev := events.VerificationRequested{Email: email, Token: token, OccurredAt: time.Now().UTC()}
		if err := s.publisher.Publish(events.TopicAuth, ev); err != nil {
			log.Printf("[AUTH] Failed to publish verification event for %s: %v", email, err)
		}
	}
}

// tokenRemainingLifetime returns how much longer a signed token stays
// valid. Invalid or already-expired tokens need no blacklist entry.
func tokenRemainingLifetime(tokenString string) time.Duration {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return 0
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return time.Until(exp.Time)
}

func generateJWT(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return subtle.ConstantTimeCompare(hash, computedHash) == 1
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
