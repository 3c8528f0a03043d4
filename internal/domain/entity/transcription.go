package entity

import "time"

// Transcription is a transcribed audio record
type Transcription struct {
	ID            int64     `json:"id"`
	AudioURL      string    `json:"audioUrl"`
	Transcription string    `json:"transcription"`
	Source        string    `json:"source,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
