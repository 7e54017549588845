package models

import "time"

// Note is a single note as confirmed by the backend. The authoritative copy
// lives server-side; local collections are caches that are replaced wholesale
// after every mutation.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
