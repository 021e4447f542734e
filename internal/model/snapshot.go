package model

// Snapshot is what the guest screen renders: one event's name, its theme and
// its gifts in insertion order.
type Snapshot struct {
	EventName string       `json:"eventName"`
	Theme     Theme        `json:"theme"`
	Gifts     []GiftRecord `json:"gifts"`
}

// LatestIndex returns the index of the most recently appended gift, or -1
// when there are none.
func (s Snapshot) LatestIndex() int {
	return len(s.Gifts) - 1
}
