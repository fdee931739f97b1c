package models

// CategoryModel represents a preset category. The table is read-mostly and
// serves as the live allow-list for submission validation.
type CategoryModel struct {
	ID          string `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Name        string `json:"name"        gorm:"not null"`
	Description string `json:"description"`
	Curated     bool   `json:"curated"     gorm:"default:false"`
	SortOrder   int    `json:"sort_order"  gorm:"default:0"`
}

func (CategoryModel) TableName() string { return "categories" }
