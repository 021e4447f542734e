package model

import "time"

// GiftRecord is one monetary gift received at an event. Abolished records are
// voided but kept for audit.
type GiftRecord struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Remark    string    `json:"remark,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Abolished bool      `json:"abolished,omitempty"`
}

// Stats summarises the whole ledger.
type Stats struct {
	Events       int        `json:"events"`
	Gifts        int        `json:"gifts"`
	ActiveGifts  int        `json:"active_gifts"`
	TotalAmount  float64    `json:"total_amount"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}
