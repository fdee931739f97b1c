package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/preset"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/discord"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/pagination"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service implements the moderator workflow: the review queue, status
// decisions with an audit trail, and reverting edits that slipped past
// screening.
type Service struct {
	db       *gorm.DB
	notifier *discord.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier *discord.Notifier, log *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, log: log, now: time.Now}
}

// Queue returns presets awaiting review, oldest first so nothing starves.
// Pending and flagged presets both land here.
func (s *Service) Queue(ctx context.Context, pq pagination.Query) ([]models.PresetModel, response.Pagination, error) {
	db := s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Where("status IN ?", []models.PresetStatus{models.PresetPending, models.PresetFlagged}).
		Order("created_at ASC")
	var items []models.PresetModel
	pag, err := pagination.Paginate(db, pq, &items)
	return items, pag, err
}

// deriveAction maps a status transition to its audit log verb. Approving a
// flagged preset is recorded as "unflag" to keep the trail readable.
func deriveAction(from, to models.PresetStatus) models.ModerationAction {
	switch to {
	case models.PresetApproved:
		if from == models.PresetFlagged {
			return models.ActionUnflag
		}
		return models.ActionApprove
	case models.PresetRejected:
		return models.ActionReject
	case models.PresetFlagged:
		return models.ActionFlag
	default:
		return models.ActionApprove
	}
}

// SetStatus applies a moderation decision. The status change and its audit
// log entry commit together or not at all.
func (s *Service) SetStatus(ctx context.Context, presetID, modID, modName string, dto *SetStatusDTO) (*models.PresetModel, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var p models.PresetModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", presetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return preset.ErrNotFound
			}
			return err
		}
		if p.Status == dto.Status {
			return ErrInvalidState
		}

		action := deriveAction(p.Status, dto.Status)

		if err := tx.Model(&models.PresetModel{}).Where("id = ?", presetID).
			Update("status", dto.Status).Error; err != nil {
			return err
		}
		p.Status = dto.Status

		return tx.Create(&models.ModerationLogModel{
			PresetID:      presetID,
			ModeratorID:   modID,
			ModeratorName: modName,
			Action:        action,
			Reason:        dto.Reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notify(discord.Embed{
		Title:       "Preset " + string(dto.Status),
		Description: p.Name,
		Color:       0xFEE75C,
		Fields: []discord.EmbedField{
			{Name: "Moderator", Value: modName, Inline: true},
			{Name: "Reason", Value: orDash(dto.Reason), Inline: true},
		},
	})
	return &p, nil
}

// Revert restores a preset's previous values after a bad edit: the snapshot
// fields go back, the dye signature is recomputed, the snapshot is cleared,
// and the preset returns to approved. Fails if the restored dye set now
// collides with another preset created since the edit.
func (s *Service) Revert(ctx context.Context, presetID, modID, modName string, dto *RevertDTO) (*models.PresetModel, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var p models.PresetModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", presetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return preset.ErrNotFound
			}
			return err
		}
		if p.PreviousValues == nil {
			return ErrNoSnapshot
		}

		snap := *p.PreviousValues
		p.Name = snap.Name
		p.Description = snap.Description
		p.Dyes = snap.Dyes
		p.Tags = snap.Tags
		p.DyeSignature = preset.DyeSignature(snap.Dyes)
		p.PreviousValues = nil
		p.Status = models.PresetApproved

		err := tx.Model(&models.PresetModel{}).Where("id = ?", presetID).
			Select("name", "description", "dyes", "tags", "dye_signature", "previous_values", "status", "updated_at").
			Updates(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRevertDupe
			}
			return err
		}

		return tx.Create(&models.ModerationLogModel{
			PresetID:      presetID,
			ModeratorID:   modID,
			ModeratorName: modName,
			Action:        models.ActionRevert,
			Reason:        dto.Reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notify(discord.Embed{
		Title:       "Preset reverted",
		Description: p.Name,
		Color:       0x57F287,
		Fields: []discord.EmbedField{
			{Name: "Moderator", Value: modName, Inline: true},
			{Name: "Reason", Value: dto.Reason, Inline: true},
		},
	})
	return &p, nil
}

// History returns the audit trail, newest first, optionally scoped to one preset.
func (s *Service) History(ctx context.Context, presetID string, pq pagination.Query) ([]models.ModerationLogModel, response.Pagination, error) {
	db := s.db.WithContext(ctx).Model(&models.ModerationLogModel{}).
		Order("created_at DESC")
	if presetID != "" {
		db = db.Where("preset_id = ?", presetID)
	}
	var items []models.ModerationLogModel
	pag, err := pagination.Paginate(db, pq, &items)
	return items, pag, err
}

// GetStats aggregates the moderation dashboard numbers.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[models.PresetStatus]int64)}

	type row struct {
		Status models.PresetStatus
		N      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.PresetModel{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.N
		stats.Total += r.N
	}

	weekAgo := s.now().UTC().Add(-7 * 24 * time.Hour)
	err = s.db.WithContext(ctx).Model(&models.ModerationLogModel{}).
		Where("created_at >= ?", weekAgo).
		Count(&stats.RecentWeek).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.BannedUserModel{}).
		Count(&stats.BannedUsers).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Ban blocks a user from submitting content. Idempotent: banning an already
// banned user refreshes the reason.
func (s *Service) Ban(ctx context.Context, userID, reason, bannedBy string) error {
	ban := models.BannedUserModel{UserID: userID, Reason: reason, BannedBy: bannedBy}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&ban).Error
}

// Unban lifts a ban. Removing a ban that does not exist is not an error.
func (s *Service) Unban(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Delete(&models.BannedUserModel{}, "user_id = ?", userID).Error
}

func (s *Service) notify(embed discord.Embed) {
	if !s.notifier.Enabled() {
		return
	}
	go s.notifier.Send(embed)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
