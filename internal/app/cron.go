package app

import (
	"context"
	"fmt"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	pkgcron "github.com/FlashGalatine/xivdyetools-api/internal/pkg/cron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const rejectedRetention = 30 * 24 * time.Hour

// registerCronJobs registers the scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	// Rejected presets keep their row, which keeps their dye combination
	// reserved by the unique signature index. Purging old rejections frees
	// those combinations for resubmission.
	sched.Register(pkgcron.Job{
		Name:        "purge_rejected_presets",
		Description: "delete rejected presets older than 30 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-rejectedRetention)
			return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var ids []string
				err := tx.Model(&models.PresetModel{}).
					Where("status = ? AND updated_at < ?", models.PresetRejected, cutoff).
					Pluck("id", &ids).Error
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					return nil
				}
				if err := tx.Where("preset_id IN ?", ids).Delete(&models.VoteModel{}).Error; err != nil {
					return err
				}
				result := tx.Where("id IN ?", ids).Delete(&models.PresetModel{})
				if result.Error != nil {
					cronLogger.Warn("purge of rejected presets failed", zap.Error(result.Error))
					return result.Error
				}
				cronLogger.Info(fmt.Sprintf("purged %d rejected presets", result.RowsAffected))
				return nil
			})
		},
	})

	// Moderation logs are an audit trail, kept for a year.
	sched.Register(pkgcron.Job{
		Name:        "trim_moderation_logs",
		Description: "delete moderation log entries older than one year",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().UTC().AddDate(-1, 0, 0)
			result := db.WithContext(ctx).
				Where("created_at < ?", cutoff).
				Delete(&models.ModerationLogModel{})
			if result.Error != nil {
				cronLogger.Warn("moderation log trim failed", zap.Error(result.Error))
				return result.Error
			}
			if result.RowsAffected > 0 {
				cronLogger.Info(fmt.Sprintf("trimmed %d moderation log entries", result.RowsAffected))
			}
			return nil
		},
	})
}
