package store

const (
	// DefaultPageLimit applies when a caller passes no limit.
	DefaultPageLimit = 50
	// MaxPageLimit caps any requested page size.
	MaxPageLimit = 100
)

// ClampLimit normalizes a requested page size into [1, MaxPageLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// CutPage trims an over-fetched result set down to limit rows and returns
// the continuation cursor. Callers fetch limit+1 rows; when the extra row
// exists, its id becomes the next cursor. This gives O(1) has-more
// detection without a count query.
func CutPage[T any](items []T, limit int, id func(T) string) ([]T, string) {
	if len(items) <= limit {
		return items, ""
	}
	next := items[limit]
	return items[:limit:limit], id(next)
}
