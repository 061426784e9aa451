package model

import "time"

// User represents a marketplace customer identified by Telegram id.
type User struct {
	ID        int64
	Username  string
	Points    int
	XP        int
	LevelName string
	CreatedAt time.Time
}

// Level maps an experience threshold to a level name.
type Level struct {
	XPThreshold int    `json:"xp_threshold"`
	Name        string `json:"name"`
}
