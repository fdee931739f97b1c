package models

import "time"

// VoteModel records that a user has voted for a preset. The composite primary
// key is the uniqueness constraint that makes addVote idempotent under
// concurrent submission; rows are never mutated, only created and deleted.
type VoteModel struct {
	PresetID  string    `json:"preset_id" gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `json:"created"`
}

func (VoteModel) TableName() string { return "preset_votes" }
