package interfaces

import (
	"context"
	"time"
)

// MailClient is a session-oriented mail transport. Identifiers passed to
// FetchMessage must come from a ListMessages call in the same session.
type MailClient interface {
	// Connect authenticates against server:port. A rejected login is reported
	// as (false, nil); the error is reserved for transport faults.
	Connect(ctx context.Context, server string, port int, userName, password string) (bool, error)
	ListMessages(ctx context.Context) ([]MessageSummary, error)
	FetchMessage(ctx context.Context, id int64) (*Message, error)
	Close() error
}

type MessageSummary struct {
	ID   int64
	Size int64
}

type Message struct {
	ID        int64
	Sender    Sender
	Subject   string
	MessageID string
	Date      time.Time
	Size      int64
}

type Sender struct {
	Name    string
	Address string
}
