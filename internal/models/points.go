package models

import "time"

// PointsBalance holds a user's dining points. One row per user, lazily
// created at 0 on first access and never deleted. Balance never goes
// negative; the repository enforces that on every debit.
type PointsBalance struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
