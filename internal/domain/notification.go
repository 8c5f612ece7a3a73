package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the delivery lifecycle state of a notification.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery medium.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelInApp Channel = "IN_APP"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// MaxContentLength bounds the opaque content payload in characters.
const MaxContentLength = 10000

// Notification is the core entity carried through the delivery pipeline.
type Notification struct {
	ID           string  `gorm:"type:uuid;primaryKey"`
	UserID       string  `gorm:"type:varchar(255);not null;index"`
	Channel      Channel `gorm:"type:varchar(10);not null"`
	Content      string  `gorm:"type:text;not null"`
	Status       Status  `gorm:"type:varchar(10);not null"`
	AttemptCount int     `gorm:"not null;default:0"`
	LastError    *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if n.Content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}
	if contentLen := len([]rune(n.Content)); contentLen > MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters (got %d)", ErrValidation, MaxContentLength, contentLen)
	}
	return nil
}
