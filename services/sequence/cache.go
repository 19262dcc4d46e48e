package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clas_go/config"
	"clas_go/database"
	"clas_go/models"

	"github.com/sirupsen/logrus"
)

const currentSessionTTL = 5 * time.Minute

func currentSessionKey(classID uint) string {
	return fmt.Sprintf("sequence:current:%d", classID)
}

func cacheEnabled() bool {
	return config.AppConfig != nil &&
		config.AppConfig.CacheCurrentSession &&
		database.GetRedisClient() != nil
}

// LoadCurrentSession resolves "today's session" for a class, serving from the
// Redis cache when possible. Cache entries are invalidated on every transition
// and generation run, so a hit is never stale beyond the TTL.
func LoadCurrentSession(classID uint) (*models.SessionRecord, error) {
	if cacheEnabled() {
		rc := database.GetRedisClient()
		if raw, err := rc.Get(context.Background(), currentSessionKey(classID)).Result(); err == nil {
			var rec models.SessionRecord
			if err := json.Unmarshal([]byte(raw), &rec); err == nil {
				return &rec, nil
			}
		}
	}

	var records []models.SessionRecord
	if err := database.DB.Where("class_id = ?", classID).
		Order("day_number asc").
		Find(&records).Error; err != nil {
		return nil, err
	}

	current, err := CurrentSession(classID, records)
	if err != nil {
		return nil, err
	}

	if cacheEnabled() {
		if raw, err := json.Marshal(current); err == nil {
			rc := database.GetRedisClient()
			if err := rc.Set(context.Background(), currentSessionKey(classID), raw, currentSessionTTL).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to cache current session")
			}
		}
	}
	return current, nil
}

// InvalidateCurrent drops the cached current session for a class.
func InvalidateCurrent(classID uint) {
	if !cacheEnabled() {
		return
	}
	rc := database.GetRedisClient()
	if err := rc.Del(context.Background(), currentSessionKey(classID)).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate current session cache")
	}
}
