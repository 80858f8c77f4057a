package domain

import "time"

// RecordMeta is the bookkeeping every persisted record carries.
type RecordMeta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
}

func (m *RecordMeta) Meta() *RecordMeta { return m }
