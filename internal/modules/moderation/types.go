package moderation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/preset"
)

const (
	reasonMinLen = 10
	reasonMaxLen = 200
)

var (
	ErrNoSnapshot   = errors.New("preset has no previous values to revert to")
	ErrRevertDupe   = errors.New("reverted dye combination collides with an existing preset")
	ErrInvalidState = errors.New("invalid status transition")
)

// SetStatusDTO carries a moderation decision.
type SetStatusDTO struct {
	Status models.PresetStatus `json:"status"`
	Reason string              `json:"reason"`
}

func (d *SetStatusDTO) Validate() error {
	// Moderators decide, they do not send presets back to pending; that
	// status only arises from screening.
	switch d.Status {
	case models.PresetApproved, models.PresetFlagged, models.PresetRejected:
	default:
		return preset.ValidationError("status must be one of approved, flagged, rejected")
	}
	d.Reason = strings.TrimSpace(d.Reason)
	if d.Reason != "" {
		return validateReason(d.Reason)
	}
	// Rejections always need a stated reason; other transitions may omit it.
	if d.Status == models.PresetRejected {
		return preset.ValidationError("a reason is required when rejecting a preset")
	}
	return nil
}

// RevertDTO carries a revert request. Reverts always need an explanation.
type RevertDTO struct {
	Reason string `json:"reason"`
}

func (d *RevertDTO) Validate() error {
	d.Reason = strings.TrimSpace(d.Reason)
	return validateReason(d.Reason)
}

func validateReason(reason string) error {
	if n := utf8.RuneCountInString(reason); n < reasonMinLen || n > reasonMaxLen {
		return preset.ValidationError("reason must be 10-200 characters")
	}
	return nil
}

// Stats summarizes the moderation workload.
type Stats struct {
	Total       int64                         `json:"total"`
	ByStatus    map[models.PresetStatus]int64 `json:"by_status"`
	RecentWeek  int64                         `json:"actions_last_7_days"`
	BannedUsers int64                         `json:"banned_users"`
}
