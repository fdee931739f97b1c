package models

// PresetStatus represents the moderation state of a preset.
type PresetStatus string

const (
	PresetPending  PresetStatus = "pending"
	PresetApproved PresetStatus = "approved"
	PresetFlagged  PresetStatus = "flagged"
	PresetRejected PresetStatus = "rejected"
)

// Valid reports whether s is a known preset status.
func (s PresetStatus) Valid() bool {
	switch s {
	case PresetPending, PresetApproved, PresetFlagged, PresetRejected:
		return true
	}
	return false
}

// PresetSnapshot holds the pre-edit field values of a preset that failed
// moderation on edit. It backs the moderator revert operation: written on the
// failing edit, overwritten by later failing edits, cleared on revert.
type PresetSnapshot struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Dyes        IntArray    `json:"dyes"`
	Tags        StringArray `json:"tags"`
}

// PresetModel represents a community dye preset.
// AuthorID is nil for system-curated presets.
type PresetModel struct {
	Base
	Name           string          `json:"name"            gorm:"not null"`
	Description    string          `json:"description"     gorm:"type:text;not null"`
	CategoryID     string          `json:"category_id"     gorm:"not null;index"`
	Dyes           IntArray        `json:"dyes"            gorm:"type:text;not null"`
	DyeSignature   string          `json:"dye_signature"   gorm:"uniqueIndex;not null"`
	Tags           StringArray     `json:"tags"            gorm:"type:text"`
	AuthorID       *string         `json:"author_id"       gorm:"index"`
	AuthorName     string          `json:"author_name"`
	VoteCount      int             `json:"vote_count"      gorm:"default:0"`
	Status         PresetStatus    `json:"status"          gorm:"type:varchar(16);default:'pending';index"`
	Curated        bool            `json:"curated"         gorm:"default:false;index"`
	PreviousValues *PresetSnapshot `json:"previous_values,omitempty" gorm:"type:text;serializer:json"`
}

func (PresetModel) TableName() string { return "presets" }
