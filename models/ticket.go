package models

import (
	"encoding/json"
	"time"
)

// Ticket is a matchmaking queue entry. GameUUID stays empty until the ticket
// is paired; a paired ticket is never written again.
type Ticket struct {
	UUID      string    `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	UID       string    `gorm:"index;not null" json:"uid"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	PolledAt  time.Time `json:"polled_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	GameUUID  string    `gorm:"type:varchar(36);index;not null;default:''" json:"gameuuid"`
	Version   int64     `gorm:"not null" json:"-"`
}

func (t *Ticket) Paired() bool {
	return t.GameUUID != ""
}

// MarshalJSON also exposes the game under paired_game_uuid.
func (t Ticket) MarshalJSON() ([]byte, error) {
	type plain Ticket
	return json.Marshal(struct {
		plain
		PairedGameUUID string `json:"paired_game_uuid"`
	}{plain(t), t.GameUUID})
}

// Before reports whether t was queued ahead of other.
func (t *Ticket) Before(other *Ticket) bool {
	if t.CreatedAt.Equal(other.CreatedAt) {
		return t.UUID < other.UUID
	}
	return t.CreatedAt.Before(other.CreatedAt)
}
