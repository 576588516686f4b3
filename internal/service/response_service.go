package service

import "time"

// LogFilter selects events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", or one of the models.Event* types
}

// HistoryFilter selects status snapshots by time range.
type HistoryFilter struct {
	From  time.Time
	To    time.Time
	Limit int // <= 0 uses defaultHistoryLimit
}

// AuthOptions configures token issuing.
type AuthOptions struct {
	SigningKey  string
	TokenTTL    time.Duration
	AllowSignUp bool
}
