package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage accumulates embedding token spend across one operation.
// A caller that wants the total installs a collector with WithTokenUsage
// before invoking the pipeline; the pipeline adds after each generation.
// Calls counts the additions; a fully cached generation adds zero tokens
// but still counts.
type TokenUsage struct {
	Tokens int
	Calls  int
}

// WithTokenUsage returns a context carrying a fresh collector, and the
// collector itself for reading after the operation.
func WithTokenUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// TokenUsageFrom extracts the collector from ctx, nil when none was installed.
func TokenUsageFrom(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// Add records one generation's token spend. Safe on a nil collector.
func (u *TokenUsage) Add(tokens int) {
	if u != nil {
		u.Tokens += tokens
		u.Calls++
	}
}
