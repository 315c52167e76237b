package repository

import "context"

type SaveMessageInput struct {
	SessionID string
	DeviceID  string
	Role      Role
	Content   string
}

type Repository interface {
	SaveMessage(ctx context.Context, input SaveMessageInput) (*Message, error)
	// ListRecentMessages returns the newest limit messages of a session
	// in chronological order (newest last).
	ListRecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
}
