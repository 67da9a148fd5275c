package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit 返回一个 Gin 中间件，用于基于客户端 IP 地址进行固定窗口限流。
// redisClient: 用于存储计数器的 Redis 客户端实例，必须提供。
// keyPrefix: 与业务数据共用的 key 前缀。
// maxRequests: 在指定时间窗口内允许的最大请求数。
// window: 速率限制的时间窗口。
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := keyPrefix + "ratelimit:" + c.ClientIP()

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithError(err).Error("RateLimit: Redis INCR failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			c.Abort()
			return
		}
		// 只在窗口的第一次请求时设置过期，后续请求不刷新窗口
		if count == 1 {
			if err := redisClient.Expire(ctx, key, window).Err(); err != nil {
				logrus.WithError(err).Warn("RateLimit: Failed to set window expiry")
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if count > int64(maxRequests) {
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(maxRequests)-count, 10))

		c.Next()
	}
}
