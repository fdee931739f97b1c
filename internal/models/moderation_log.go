package models

// ModerationAction labels a moderator-triggered status mutation in the audit log.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionFlag    ModerationAction = "flag"
	ActionUnflag  ModerationAction = "unflag"
	ActionRevert  ModerationAction = "revert"
)

// ModerationLogModel is an append-only audit entry, one per moderator action.
// Rows are immutable once written.
type ModerationLogModel struct {
	Base
	PresetID      string           `json:"preset_id"      gorm:"type:char(36);not null;index"`
	ModeratorID   string           `json:"moderator_id"   gorm:"type:varchar(64);not null"`
	ModeratorName string           `json:"moderator_name"`
	Action        ModerationAction `json:"action"         gorm:"type:varchar(16);not null;index"`
	Reason        string           `json:"reason,omitempty" gorm:"type:text"`
}

func (ModerationLogModel) TableName() string { return "moderation_logs" }
