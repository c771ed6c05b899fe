package common

import (
	"time"

	"gorm.io/gorm"
)

// Model 通用主键与时间戳，DeletedAt 非空即视为软删除
type Model struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}
