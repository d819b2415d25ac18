package launchlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// idPrefix marks launch IDs.
const idPrefix = "lch-"

// Event is one rendered embed page.
type Event struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id,omitempty"`
	PageID         string    `json:"page_id"`
	RemoteAddr     string    `json:"remote_addr,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	ForwardedKeys  []string  `json:"forwarded_keys"`
	ForwardedCount int       `json:"forwarded_count"`
	EscapeMode     string    `json:"escape_mode"`
	RenderedAt     time.Time `json:"rendered_at"`
}

// NewID returns a fresh launch ID. Every render gets one, so the full
// UUID is kept to avoid primary key collisions.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// prepare fills generated fields and checks the event can be recorded.
// It is idempotent so that every sink in a Multi sees the same ID.
func (e *Event) prepare() error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if e.PageID == "" {
		return fmt.Errorf("%w: page_id is required", ErrInvalidEvent)
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.RenderedAt.IsZero() {
		e.RenderedAt = time.Now().UTC()
	}
	if e.ForwardedKeys == nil {
		e.ForwardedKeys = []string{}
	}
	if e.ForwardedCount == 0 && len(e.ForwardedKeys) > 0 {
		e.ForwardedCount = len(e.ForwardedKeys)
	}
	return nil
}
