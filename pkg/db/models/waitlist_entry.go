package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry records a launch-notification signup.
type WaitlistEntry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:waitlist_entries_email_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
