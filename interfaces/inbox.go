package interfaces

import "context"

type InboxStore interface {
	// ResetInboxTable drops the inbox table and recreates it empty.
	ResetInboxTable(ctx context.Context) error
}

type InboxService interface {
	RefreshInbox(ctx context.Context) error
}
