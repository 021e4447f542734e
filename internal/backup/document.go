package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dukerupert/giftledger/internal/model"
)

// rawDocument keeps events and gifts undecoded so that a missing field can
// be told apart from an empty one.
type rawDocument struct {
	Version   string          `json:"version"`
	Timestamp string          `json:"timestamp"`
	Events    json.RawMessage `json:"events"`
	Gifts     json.RawMessage `json:"gifts"`
}

// ParseDocument decodes and validates a backup document. It returns an error
// wrapping model.ErrFormat when data is not JSON text and model.ErrSchema when
// a required field is absent or has the wrong shape. The version is only
// checked for presence.
func ParseDocument(data []byte) (*model.Document, error) {
	if !utf8.Valid(data) || !json.Valid(data) {
		return nil, model.ErrFormat
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSchema, err)
	}

	var missing []string
	if raw.Version == "" {
		missing = append(missing, "version")
	}
	if raw.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if isAbsent(raw.Events) {
		missing = append(missing, "events")
	}
	if isAbsent(raw.Gifts) {
		missing = append(missing, "gifts")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", model.ErrSchema, missing)
	}

	doc := &model.Document{Version: raw.Version, Timestamp: raw.Timestamp}
	if err := json.Unmarshal(raw.Events, &doc.Events); err != nil {
		return nil, fmt.Errorf("%w: events: %v", model.ErrSchema, shapeError(err))
	}
	if err := json.Unmarshal(raw.Gifts, &doc.Gifts); err != nil {
		return nil, fmt.Errorf("%w: gifts: %v", model.ErrSchema, shapeError(err))
	}
	return doc, nil
}

func isAbsent(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}

func shapeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("field %q has type %s", typeErr.Field, typeErr.Value)
	}
	return err
}
