package entity

import "time"

// FeedConfig credenciales del origen externo de datos. Solo una puede estar activa.
type FeedConfig struct {
	ID        string
	URL       string
	Username  string
	Password  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
