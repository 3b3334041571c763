package interfaces

import "context"

// ConfigurationSource is a read-only typed key/value accessor.
type ConfigurationSource interface {
	ReadBool(ctx context.Context, name string) (bool, error)
	ReadString(ctx context.Context, name string) (string, error)
}
