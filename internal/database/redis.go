package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// InitRedis returns a connected client, or nil when Redis is unreachable.
// Callers treat nil as "run without Redis".
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	opts := &redis.Options{
		Addr:     viper.GetString("redis.host") + ":" + viper.GetString("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
	if url := viper.GetString("redis.url"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("[REDIS] invalid REDIS_URL, continuing without Redis: %v", err)
			return nil
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] connection failed, continuing without Redis: %v", err)
		rdb.Close()
		return nil
	}

	log.Printf("[REDIS] connected to %s", opts.Addr)
	return rdb
}
