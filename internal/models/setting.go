package models

import "time"

type Setting struct {
	Key       string    `gorm:"column:key;type:varchar(100);primaryKey"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Setting) TableName() string {
	return "settings"
}
