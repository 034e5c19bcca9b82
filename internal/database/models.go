package database

// AllowedUser is a persisted allow-list entry
type AllowedUser struct {
	UserID    string
	AddedBy   string
	CreatedAt int64
}

// SecurityEvent represents a logged security event
type SecurityEvent struct {
	ID        string
	EventType string
	UserID    string
	Details   string
	Timestamp int64
}
