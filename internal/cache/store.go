package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a keyed cache of JSON-encodable values. Callers invalidate
// explicitly after writes; nothing expires on its own except through ttl.
type Store interface {
	// Get decodes the cached value into dest and reports whether the key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

const (
	// StudentRosterKey holds the ordered list of raw student rows.
	StudentRosterKey = "students:roster"
	// CourseListKey holds the ordered list of courses.
	CourseListKey = "courses:list"
)

// StudentKey is the cache key of a single raw student row.
func StudentKey(id string) string {
	return fmt.Sprintf("students:id:%s", id)
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Invalidate(context.Context, ...string) error                   { return nil }
