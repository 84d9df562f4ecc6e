package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

// Board is the job board engine. It composes the identifier allocator, the
// posting store, the ownership index, and the reply store over a
// repository.BoardStore.
//
// Every operation holds mu for its whole duration and runs in one BoardTx:
// it commits on success and rolls back on any error, so callers observe
// each operation either fully applied or not at all.
type Board struct {
	mu    sync.Mutex
	store repository.BoardStore
}

// NewBoard creates a Board over store.
func NewBoard(store repository.BoardStore) *Board {
	return &Board{store: store}
}

// Stats describes the current board state.
type Stats struct {
	Postings      uint64 `json:"postings"`
	Replies       uint64 `json:"replies"`
	NextPostingID uint32 `json:"nextPostingId"`
	NextReplyID   uint64 `json:"nextReplyId"`
}

// withTx runs fn inside a fresh transaction under the board lock.
func (b *Board) withTx(ctx context.Context, fn func(tx repository.BoardTx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("service/board: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("service/board: commit: %w", err)
	}
	return nil
}

// Initialize creates the empty board state with both counters at zero.
// It fails with AlreadyInitialized if the board already exists.
func (b *Board) Initialize(ctx context.Context) error {
	return b.withTx(ctx, func(tx repository.BoardTx) error {
		_, ok, err := tx.Counters(ctx)
		if err != nil {
			return err
		}
		if ok {
			return apperror.AlreadyInitialized()
		}
		return tx.SetCounters(ctx, repository.Counters{})
	})
}

// CreatePosting stores a new posting owned by owner.
func (b *Board) CreatePosting(ctx context.Context, owner, title, description, contact string) (*model.Posting, error) {
	var posting *model.Posting
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		var err error
		posting, err = newPostingStore(tx).create(ctx, owner, title, description, contact)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posting, nil
}

// DeletePosting removes posting id and all of its replies, and reports how
// many replies went with it. Only the identity that created the posting may
// remove it.
func (b *Board) DeletePosting(ctx context.Context, requester string, id uint32) (*model.Posting, int, error) {
	var (
		removed *model.Posting
		purged  int
	)
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		if _, err := (allocator{tx: tx}).counters(ctx); err != nil {
			return err
		}
		var err error
		removed, purged, err = newPostingStore(tx).delete(ctx, id, requester)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return removed, purged, nil
}

// ListPostings returns up to limit postings starting at position fromIndex
// in insertion order.
func (b *Board) ListPostings(ctx context.Context, fromIndex, limit uint64) ([]model.PostingEntry, error) {
	var entries []model.PostingEntry
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		if _, err := (allocator{tx: tx}).counters(ctx); err != nil {
			return err
		}
		var err error
		entries, err = newPostingStore(tx).list(ctx, fromIndex, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateReply stores a reply to postingID.
func (b *Board) CreateReply(ctx context.Context, github, description, contact string, postingID uint32) (*model.Reply, error) {
	var reply *model.Reply
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		var err error
		reply, err = newReplyStore(tx).create(ctx, github, description, contact, postingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// ListReplies returns the replies to postingID in creation order. A posting
// with no replies, or no posting at all, yields an empty slice.
func (b *Board) ListReplies(ctx context.Context, postingID uint32) ([]model.Reply, error) {
	var replies []model.Reply
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		var err error
		replies, err = newReplyStore(tx).repliesFor(ctx, postingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return replies, nil
}

// Stats reports record counts and the next identifiers to be allocated.
func (b *Board) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := b.withTx(ctx, func(tx repository.BoardTx) error {
		c, err := (allocator{tx: tx}).counters(ctx)
		if err != nil {
			return err
		}
		if stats.Postings, err = tx.CountPostings(ctx); err != nil {
			return err
		}
		if stats.Replies, err = tx.CountReplies(ctx); err != nil {
			return err
		}
		stats.NextPostingID = c.NextPostingID
		stats.NextReplyID = c.NextReplyID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
