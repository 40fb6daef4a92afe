package policies

import "context"

// Notifier surfaces status messages to the visitor.
type Notifier interface {
	Notify(ctx context.Context, kind string, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, kind string, message string)

func (f NotifierFunc) Notify(ctx context.Context, kind string, message string) { f(ctx, kind, message) }
