// Package cache provides the read-through page cache used by the board
// service. Cache failures are never returned to callers: a miss or an
// unreachable backend just means the service goes to the store.
package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = time.Minute

const keyPrefix = "jobboard:"

// Cache stores serialized pages under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// PostingsPrefix covers every cached postings page.
const PostingsPrefix = keyPrefix + "postings:"

// PostingsKey is the key of the postings page starting at fromIndex.
func PostingsKey(fromIndex, limit uint64) string {
	return fmt.Sprintf("%sfrom=%d:limit=%d", PostingsPrefix, fromIndex, limit)
}

// RepliesKey is the key of the reply list of postingID.
func RepliesKey(postingID uint32) string {
	return fmt.Sprintf("%sreplies:%d", keyPrefix, postingID)
}

// Nop never stores anything. It is used when no cache backend is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) InvalidatePrefix(context.Context, string)           {}
