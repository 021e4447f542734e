package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Layouts tried, in order, for string timestamps. Values without a zone are
// read in the local zone, the way a datetime-local form field means them.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
}

// ParseTimestamp decodes a timestamp the way backups written by older clients
// carry it: RFC 3339, a datetime-local string, epoch milliseconds, null or
// "". Anything it cannot read yields the zero time.
func ParseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// UnmarshalJSON reads the date fields with ParseTimestamp so one odd value
// does not reject the whole record.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		StartDateTime json.RawMessage `json:"startDateTime"`
		EndDateTime   json.RawMessage `json:"endDateTime"`
		CreatedAt     json.RawMessage `json:"createdAt"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.StartDateTime = ParseTimestamp(aux.StartDateTime)
	e.EndDateTime = ParseTimestamp(aux.EndDateTime)
	e.CreatedAt = ParseTimestamp(aux.CreatedAt)
	return nil
}

// UnmarshalJSON reads the timestamp with ParseTimestamp.
func (g *GiftRecord) UnmarshalJSON(data []byte) error {
	type plain GiftRecord
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.Timestamp = ParseTimestamp(aux.Timestamp)
	return nil
}
