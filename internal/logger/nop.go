// Package logger provides the no-op and test loggers the library falls back
// to when the embedder does not supply one.
package logger

import "github.com/quantflow/pushhub/types"

// NopLogger discards every message. It is the default when no logger option
// is given, which keeps the hot paths free of nil checks.
//
// Example:
//
//	mgr := pushhub.NewManager(&cfg, engine, pushhub.WithLogger(logger.NewNop()))
type NopLogger struct{}

// Compile-time assertion that NopLogger implements Logger.
var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a logger that discards all messages.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (n *NopLogger) Debug(_ string, _ ...any) {}

// Info discards the message.
func (n *NopLogger) Info(_ string, _ ...any) {}

// Warn discards the message.
func (n *NopLogger) Warn(_ string, _ ...any) {}

// Error discards the message.
func (n *NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message and, unlike production loggers, does not
// terminate the process. Tests rely on that.
func (n *NopLogger) Fatal(_ string, _ ...any) {}
