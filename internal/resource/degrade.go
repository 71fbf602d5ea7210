// ABOUTME: Degrade-on-failure helpers for optional, dashboard-style reads
// ABOUTME: Convert errors into empty/absent results and log them instead

package resource

import "log/slog"

// OrEmpty returns items, or an empty slice if err is non-nil.
func OrEmpty[T any](logger *slog.Logger, op string, items []T, err error) []T {
	if err != nil {
		logDegraded(logger, op, err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// OrAbsent returns item, or nil if err is non-nil.
func OrAbsent[T any](logger *slog.Logger, op string, item *T, err error) *T {
	if err != nil {
		logDegraded(logger, op, err)
		return nil
	}
	return item
}

// OrZero returns v, or the zero value of T if err is non-nil.
func OrZero[T any](logger *slog.Logger, op string, v T, err error) T {
	if err != nil {
		logDegraded(logger, op, err)
		var zero T
		return zero
	}
	return v
}

func logDegraded(logger *slog.Logger, op string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Read degraded to empty result", "operation", op, "error", err)
}
