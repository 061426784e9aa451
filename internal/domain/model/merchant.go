package model

import "time"

// Merchant represents a service provider reachable through Telegram.
type Merchant struct {
	ID        int64
	Name      string
	ChatID    int64
	CreatedAt time.Time
}
