package models

import (
	"time"

	"github.com/lib/pq"
)

// InboxEmail is a row of the local inbox mirror
type InboxEmail struct {
	ID          string         `gorm:"column:id;type:varchar(50);primaryKey"`
	ServerID    int64          `gorm:"column:server_id;index;not null"`
	MessageID   string         `gorm:"column:message_id;type:varchar(255);index"`
	Subject     string         `gorm:"column:subject;type:varchar(1000)"`
	FromAddress string         `gorm:"column:from_address;type:varchar(255);index"`
	FromName    string         `gorm:"column:from_name;type:varchar(255)"`
	ToAddresses pq.StringArray `gorm:"column:to_addresses;type:text[]"`
	Size        int64          `gorm:"column:size"`
	SentAt      *time.Time     `gorm:"column:sent_at;type:timestamp;index"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (InboxEmail) TableName() string {
	return "email_inbox"
}
