package services

import (
	"errors"

	"clas_go/config"
	"clas_go/database"
	"clas_go/models"
	"clas_go/services/notifications"
	"clas_go/services/sequence"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// IntegrityScheduler runs the nightly sequence integrity audit and the hourly
// audit log maintenance on cron schedules from config.
type IntegrityScheduler struct {
	cron      *cron.Cron
	validator *sequence.Validator
	archive   *AuditArchiveService
	notifier  *notifications.Service
}

// NewIntegrityScheduler creates a scheduler with its dependencies wired.
func NewIntegrityScheduler() *IntegrityScheduler {
	return &IntegrityScheduler{
		cron:      cron.New(),
		validator: sequence.NewValidator(),
		archive:   NewAuditArchiveService(),
		notifier:  notifications.NewService(),
	}
}

// Start registers the cron entries and starts the scheduler in its own
// goroutine. Returns an error if either expression fails to parse.
func (is *IntegrityScheduler) Start() error {
	if _, err := is.cron.AddFunc(config.AppConfig.IntegrityAuditCron, is.RunIntegrityAudit); err != nil {
		return err
	}
	if _, err := is.cron.AddFunc(config.AppConfig.AuditFlushCron, is.RunAuditMaintenance); err != nil {
		return err
	}
	is.cron.Start()
	logrus.WithFields(logrus.Fields{
		"integrity_audit": config.AppConfig.IntegrityAuditCron,
		"audit_flush":     config.AppConfig.AuditFlushCron,
	}).Info("Integrity scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for running jobs to finish.
func (is *IntegrityScheduler) Stop() {
	ctx := is.cron.Stop()
	<-ctx.Done()
}

// RunIntegrityAudit audits every active class, repairing gaps and flagging
// corruption for manual review.
func (is *IntegrityScheduler) RunIntegrityAudit() {
	classIDs, err := is.validator.ClassIDs()
	if err != nil {
		logrus.WithError(err).Error("Integrity audit: failed to list classes")
		return
	}

	var audited, repaired, corrupted int
	for _, classID := range classIDs {
		report, err := is.validator.Audit(classID, 0, true)
		if err != nil && !errors.Is(err, sequence.ErrSequenceCorruption) {
			logrus.WithError(err).WithField("class_id", classID).Error("Integrity audit failed")
			continue
		}
		audited++
		if report.GapsRepaired > 0 {
			repaired++
		}
		if report.Corrupted {
			corrupted++
			is.alertCorruption(classID, report)
		}
	}

	logrus.WithFields(logrus.Fields{
		"audited":   audited,
		"repaired":  repaired,
		"corrupted": corrupted,
	}).Info("Nightly integrity audit finished")
}

func (is *IntegrityScheduler) alertCorruption(classID uint, report *sequence.IntegrityReport) {
	var class models.Class
	if err := database.DB.First(&class, classID).Error; err != nil {
		logrus.WithError(err).WithField("class_id", classID).Error("Integrity audit: class lookup failed")
		return
	}

	duplicates := make([]int, 0, len(report.Duplicates))
	for _, d := range report.Duplicates {
		duplicates = append(duplicates, d.DayNumber)
	}
	if err := is.notifier.NotifySequenceCorruption(class, duplicates, report.OutOfRange); err != nil {
		logrus.WithError(err).WithField("class_id", classID).Error("Integrity audit: corruption alert failed")
	}
}

// RunAuditMaintenance flushes queued audit entries and archives entries older
// than 30 days.
func (is *IntegrityScheduler) RunAuditMaintenance() {
	if err := is.archive.FlushCachedEntriesToDatabase(); err != nil {
		logrus.WithError(err).Warn("Audit flush failed")
	}
	if err := is.archive.ArchiveOldEntries(30); err != nil {
		logrus.WithError(err).Warn("Audit archive failed")
	}
}
