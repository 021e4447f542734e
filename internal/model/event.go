package model

import "time"

// Theme selects the visual mood of an event's screens.
type Theme string

const (
	ThemeFestive Theme = "festive"
	ThemeSolemn  Theme = "solemn"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t == ThemeFestive || t == ThemeSolemn
}

// Event is one occasion whose gifts are being recorded.
type Event struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartDateTime time.Time `json:"startDateTime,omitzero"`
	EndDateTime   time.Time `json:"endDateTime,omitzero"`
	Recorder      string    `json:"recorder,omitempty"`
	Theme         Theme     `json:"theme,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}
