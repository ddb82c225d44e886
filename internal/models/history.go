package models

// HistoryEntry is a submitted request as kept by history storage.
// Key is assigned by the store and is unrelated to Request.ID.
type HistoryEntry struct {
	Key     int64        `json:"key"`
	Request *RequestData `json:"request"`
}
