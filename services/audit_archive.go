package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditArchiveService handles flushing cached audit entries and archiving old
// entries to S3
type AuditArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
}

// ArchivedEntry is the exported representation stored inside archives
type ArchivedEntry struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	ClassID    *uint          `json:"class_id,omitempty"`
	DayNumber  *int           `json:"day_number,omitempty"`
	FromStatus string         `json:"from_status,omitempty"`
	ToStatus   string         `json:"to_status,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
	Username   string         `json:"username,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
}

// NewAuditArchiveService creates a new service instance
func NewAuditArchiveService() *AuditArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; S3 operations will fail until configured")
	}

	return &AuditArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// FlushCachedEntriesToDatabase moves audit entries from Redis cache to database
func (aas *AuditArchiveService) FlushCachedEntriesToDatabase() error {
	if aas.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()

	// Everything currently on the queue is eligible; entries are indexed by
	// enqueue time.
	keys, err := aas.redisClient.ZRangeByScore(ctx, middleware.AuditQueueKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to get queued audit entries: %v", err)
	}

	logrus.Infof("Processing %d queued audit entries", len(keys))

	var processedCount int
	var errorCount int

	for _, key := range keys {
		data, err := aas.redisClient.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get audit data for key: %s", key)
				errorCount++
			}
			continue
		}

		var entry models.AuditLog
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal audit data for key: %s", key)
			errorCount++
			continue
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Errorf("Failed to save audit entry to database: %v", entry)
			errorCount++
			continue
		}

		// Remove from cache and queue
		pipeline := aas.redisClient.Pipeline()
		pipeline.Del(ctx, key)
		pipeline.ZRem(ctx, middleware.AuditQueueKey, key)
		if _, err = pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove audit entry from cache: %s", key)
		}

		processedCount++
	}

	logrus.Infof("Flushed %d audit entries to database, %d errors", processedCount, errorCount)
	return nil
}

// ArchiveOldEntries archives audit entries older than the specified days to S3
// and removes them from the database
func (aas *AuditArchiveService) ArchiveOldEntries(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days for safety")
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	// Get entries to archive in batches
	batchSize := 1000
	var allEntries []ArchivedEntry

	for offset := 0; ; offset += batchSize {
		var entries []models.AuditLog

		err := database.DB.
			Preload("User").
			Where("created_at < ?", cutoffDate).
			Limit(batchSize).
			Offset(offset).
			Find(&entries).Error

		if err != nil {
			return fmt.Errorf("failed to fetch audit entries for archiving: %v", err)
		}

		if len(entries) == 0 {
			break
		}

		for _, e := range entries {
			archived := ArchivedEntry{
				ID:         e.ID,
				UserID:     e.UserID,
				Action:     e.Action,
				Resource:   e.Resource,
				ResourceID: e.ResourceID,
				ClassID:    e.ClassID,
				DayNumber:  e.DayNumber,
				FromStatus: e.FromStatus,
				ToStatus:   e.ToStatus,
				Reason:     e.Reason,
				IPAddress:  e.IPAddress,
				UserAgent:  e.UserAgent,
				CreatedAt:  e.CreatedAt,
			}

			if len(e.Details) > 0 {
				var details map[string]any
				if err := json.Unmarshal(e.Details, &details); err == nil {
					archived.Details = details
				}
			}

			if e.User.ID > 0 {
				archived.Username = e.User.Username
				archived.UserRole = e.User.Role
			}

			allEntries = append(allEntries, archived)
		}
	}

	if len(allEntries) == 0 {
		logrus.Info("No audit entries to archive")
		return nil
	}
	logrus.Infof("Archiving %d audit entries older than %s", len(allEntries), cutoffDate.Format("2006-01-02"))

	archiveFileName := fmt.Sprintf("audit_logs_%s.zip", cutoffDate.Format("2006-01-02"))
	zipBuffer, err := aas.createZipArchive(allEntries, archiveFileName)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %v", err)
	}

	s3Key := fmt.Sprintf("audit/archived/%d/%02d/%s",
		cutoffDate.Year(),
		cutoffDate.Month(),
		archiveFileName)

	if err := aas.uploadToS3(s3Key, zipBuffer); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}

	logrus.Infof("Successfully uploaded archive to S3: %s", s3Key)

	result := database.DB.Where("created_at < ?", cutoffDate).Delete(&models.AuditLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived entries from database: %v", result.Error)
	}

	logrus.Infof("Deleted %d archived entries from database", result.RowsAffected)

	archiveMetadata := models.AuditArchive{
		FileName:    archiveFileName,
		S3Key:       s3Key,
		StartDate:   allEntries[0].CreatedAt,
		EndDate:     cutoffDate,
		RecordCount: len(allEntries),
		FileSize:    int64(zipBuffer.Len()),
		Status:      "completed",
	}

	if err := database.DB.Create(&archiveMetadata).Error; err != nil {
		logrus.WithError(err).Error("Failed to save archive metadata")
	}

	return nil
}

// createZipArchive creates a ZIP file containing the entries as JSON and CSV
func (aas *AuditArchiveService) createZipArchive(entries []ArchivedEntry, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	entriesFile, err := zipWriter.Create("audit_logs.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create entries file in ZIP: %v", err)
	}

	encoder := json.NewEncoder(entriesFile)
	encoder.SetIndent("", "  ")

	payload := map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(entries),
		"format_version": "1.0",
		"entries":        entries,
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode entries to JSON: %v", err)
	}

	metadataFile, err := zipWriter.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata file in ZIP: %v", err)
	}

	metadata := map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(entries),
		"date_range": map[string]any{
			"start": entries[0].CreatedAt,
			"end":   entries[len(entries)-1].CreatedAt,
		},
		"schema_version": "1.0",
		"description":    "CLAS Audit Log Archive",
	}
	metadataEncoder := json.NewEncoder(metadataFile)
	if err := metadataEncoder.Encode(metadata); err != nil {
		return nil, fmt.Errorf("failed to encode metadata to JSON: %v", err)
	}

	csvFile, err := zipWriter.Create("audit_logs.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file in ZIP: %v", err)
	}

	csvHeader := "ID,User ID,Username,Role,Action,Resource,Resource ID,Class ID,Day,From,To,Reason,IP Address,Created At,Details\n"
	csvFile.Write([]byte(csvHeader))

	for _, e := range entries {
		details := ""
		if e.Details != nil {
			if detailsBytes, err := json.Marshal(e.Details); err == nil {
				details = strings.ReplaceAll(string(detailsBytes), "\"", "\"\"")
			}
		}

		classID := ""
		if e.ClassID != nil {
			classID = fmt.Sprintf("%d", *e.ClassID)
		}
		day := ""
		if e.DayNumber != nil {
			day = fmt.Sprintf("%d", *e.DayNumber)
		}

		csvLine := fmt.Sprintf("%d,%d,%s,%s,%s,%s,%d,%s,%s,%s,%s,%s,%s,%s,\"%s\"\n",
			e.ID,
			e.UserID,
			e.Username,
			e.UserRole,
			e.Action,
			e.Resource,
			e.ResourceID,
			classID,
			day,
			e.FromStatus,
			e.ToStatus,
			e.Reason,
			e.IPAddress,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		)
		csvFile.Write([]byte(csvLine))
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %v", err)
	}

	return buf, nil
}

// uploadToS3 uploads data to S3 bucket
func (aas *AuditArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if aas.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(aas.awsConfig)
	bucketName := os.Getenv("S3_BUCKET_NAME")

	_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})

	return err
}

// downloadFromS3 downloads a key from S3
func (aas *AuditArchiveService) downloadFromS3(key string) (io.ReadCloser, error) {
	if aas.awsConfig.Region == "" {
		return nil, fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(aas.awsConfig)
	bucketName := os.Getenv("S3_BUCKET_NAME")

	result, err := s3Client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: &bucketName,
		Key:    &key,
	})

	if err != nil {
		return nil, err
	}

	return result.Body, nil
}

// GetArchives retrieves the list of archived audit batches
func (aas *AuditArchiveService) GetArchives() ([]models.AuditArchive, error) {
	var archives []models.AuditArchive

	err := database.DB.
		Order("created_at DESC").
		Find(&archives).Error

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve archives: %v", err)
	}

	return archives, nil
}

// DownloadArchive downloads a specific archive from S3
func (aas *AuditArchiveService) DownloadArchive(archiveID uint) (io.ReadCloser, string, error) {
	var archive models.AuditArchive

	err := database.DB.First(&archive, archiveID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", fmt.Errorf("archive not found")
		}
		return nil, "", fmt.Errorf("failed to retrieve archive: %v", err)
	}

	reader, err := aas.downloadFromS3(archive.S3Key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive from S3: %v", err)
	}

	return reader, archive.FileName, nil
}
