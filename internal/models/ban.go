package models

import "time"

// BannedUserModel marks a user as banned from mutating actions. The ban gate
// treats lookup errors as "not banned" so a storage hiccup never blocks
// legitimate traffic.
type BannedUserModel struct {
	UserID    string    `json:"user_id"   gorm:"type:varchar(64);primaryKey"`
	Reason    string    `json:"reason"    gorm:"type:text"`
	BannedBy  string    `json:"banned_by" gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created"`
}

func (BannedUserModel) TableName() string { return "banned_users" }
