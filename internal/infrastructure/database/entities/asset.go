package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Asset is the persisted metadata of one stored object.
type Asset struct {
	ID               string                      `gorm:"type:varchar(40);primaryKey"`
	ObjectPath       string                      `gorm:"type:varchar(512);uniqueIndex;not null"`
	BucketName       string                      `gorm:"type:varchar(128);not null"`
	AssetType        string                      `gorm:"type:varchar(16);index;not null"`
	StyleSubcategory *string                     `gorm:"type:varchar(16);index"`
	Filename         string                      `gorm:"type:varchar(255);not null"`
	MimeType         string                      `gorm:"type:varchar(64);not null"`
	FileSize         int64                       `gorm:"not null"`
	Width            *int
	Height           *int
	UserID           string                      `gorm:"type:varchar(64);index;not null"`
	SessionID        *string                     `gorm:"type:varchar(40);index"`
	SourceModelIDs   datatypes.JSONSlice[string] `gorm:"column:source_model_ids"`
	SourceStyleID    *string                     `gorm:"type:varchar(40)"`
	RefinedPrompt    string                      `gorm:"type:text"`
	IsActive         bool                        `gorm:"index;not null;default:true"`
	IsPublic         bool                        `gorm:"not null;default:false"`
	CreatedAt        time.Time                   `gorm:"index"`
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

func (Asset) TableName() string {
	return "assets"
}
