package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clas_go/database"
	"clas_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuditQueueKey is the Redis sorted set that indexes buffered audit entries
// until the archiver flushes them to the database.
const AuditQueueKey = "audit:queue"

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Log request
		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// LogAudit records a generic audit entry for the current request. Entries go
// to Redis first and are flushed to the database in batches; if Redis is
// unavailable they fall through to a direct insert.
func LogAudit(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	entry := buildEntry(c, action, resource, resourceID, details)
	enqueue(entry)
}

// LogSequenceAudit records an audit entry for a session sequence event,
// carrying the class, day, and status detail that plain entries lack.
func LogSequenceAudit(c *fiber.Ctx, action string, classID uint, dayNumber int, fromStatus, toStatus, reason string, details interface{}) {
	entry := buildEntry(c, action, "session_records", 0, details)
	entry.ClassID = &classID
	if dayNumber > 0 {
		entry.DayNumber = &dayNumber
	}
	entry.FromStatus = fromStatus
	entry.ToStatus = toStatus
	entry.Reason = reason
	enqueue(entry)
}

func buildEntry(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) models.AuditLog {
	// Unauthenticated requests are logged as system actions.
	var userID uint
	if user, err := GetCurrentUser(c); err == nil {
		userID = user.ID
	}

	var detailsJSON models.JSON
	if details != nil {
		if detailsBytes, err := json.Marshal(details); err == nil {
			detailsJSON = detailsBytes
		}
	}

	return models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}
}

func enqueue(entry models.AuditLog) {
	go func(al models.AuditLog) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in audit enqueue goroutine")
			}
		}()

		if err := cacheAuditLog(al); err != nil {
			logrus.WithError(err).Warn("Failed to cache audit log, saving directly to database")
			if database.DB == nil {
				logrus.Error("database.DB is nil; cannot save audit log to database")
				return
			}
			if dbErr := database.DB.Create(&al).Error; dbErr != nil {
				logrus.WithError(dbErr).Error("Failed to save audit log to database")
			}
		}
	}(entry)
}

// cacheAuditLog stores an audit entry in Redis with 24-hour TTL and indexes it
// on the flush queue.
func cacheAuditLog(entry models.AuditLog) error {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return fmt.Errorf("redis client is nil")
	}
	ctx := context.Background()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %v", err)
	}

	cacheKey := fmt.Sprintf("audit:%d:%s:%d", entry.UserID, entry.Action, time.Now().UnixNano())

	if err := redisClient.Set(ctx, cacheKey, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache audit entry: %v", err)
	}

	if err := redisClient.ZAdd(ctx, AuditQueueKey, &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: cacheKey,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to add audit entry to flush queue")
	}

	return nil
}

// AuditMiddleware automatically logs mutating requests
func AuditMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for GET requests and auth endpoints
		if c.Method() == "GET" || strings.Contains(c.Path(), "/auth/") {
			return c.Next()
		}

		// Process request
		err := c.Next()

		var action string
		switch c.Method() {
		case "POST":
			action = "CREATE"
		case "PUT", "PATCH":
			action = "UPDATE"
		case "DELETE":
			action = "DELETE"
		default:
			return err
		}

		// Extract resource from path, assumes /api/resource format
		pathParts := strings.Split(strings.Trim(c.Path(), "/"), "/")
		var resource string
		if len(pathParts) >= 2 {
			resource = pathParts[1]
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, parseErr := strconv.ParseUint(id, 10, 32); parseErr == nil {
				resourceID = uint(parsedID)
			}
		}

		// Log only if request was successful
		if c.Response().StatusCode() < 400 {
			LogAudit(c, action, resource, resourceID, nil)
		}

		return err
	}
}
