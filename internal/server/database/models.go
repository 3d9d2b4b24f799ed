package database

import "time"

// Session is the audit record of one shell session. The namespace itself
// is never stored.
type Session struct {
	ID          string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ClosedAt    *time.Time // nil while the session is open
	CloseReason *string
}

// Command is one executed command line.
type Command struct {
	ID         int64
	SessionID  string
	Line       string
	Command    string
	Output     string
	Error      *string // nil when the command succeeded
	DurationUS int64
	ExecutedAt time.Time
}

// Stats holds aggregate audit statistics.
type Stats struct {
	TotalSessions  int64
	OpenSessions   int64
	TotalCommands  int64
	FailedCommands int64
}
