package model

// DocumentVersion is written into every exported backup document.
const DocumentVersion = "1.0.0"

// Document is the portable backup format: all events plus each event's gifts
// keyed by event id.
type Document struct {
	Version   string                  `json:"version"`
	Timestamp string                  `json:"timestamp"`
	Events    []Event                 `json:"events"`
	Gifts     map[string][]GiftRecord `json:"gifts"`
}

// ImportResult counts what a backup import added and what it skipped.
type ImportResult struct {
	Events    int `json:"events"`
	Gifts     int `json:"gifts"`
	Conflicts int `json:"conflicts"`
}
