package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// InitRedis connects the client backing the token blacklist, verification
// tokens, and receive-QR cache. All of those degrade gracefully, so a
// failed connection returns nil instead of aborting startup.
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.dial_timeout", 5*time.Second)

	rdb := redis.NewClient(&redis.Options{
		Addr:        viper.GetString("redis.host") + ":" + viper.GetString("redis.port"),
		Password:    viper.GetString("redis.password"),
		DB:          viper.GetInt("redis.db"),
		DialTimeout: viper.GetDuration("redis.dial_timeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("redis.dial_timeout"))
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
