package mix

import "log/slog"

// Option configures an Archive as it is opened.
type Option func(*Archive)

// WithLogger routes non-fatal diagnostics (such as the unsorted entry
// table warning) to l. Diagnostics are observational only and never
// affect control flow. Without this option they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = l
	}
}

// WithCache loads the payload region into memory during Open, as if
// Cache had been called on the opened archive.
func WithCache() Option {
	return func(a *Archive) {
		a.eagerCache = true
	}
}
