// Package repository defines the storage contracts the service layer depends on.
//
// The board's persisted state is four key-value maps (postings, posting
// owners, replies, reply index) plus two identifier counters. Every read or
// write happens inside a BoardTx: the service commits it when an operation
// succeeds and rolls it back when any step fails, so a failed operation
// leaves no trace.
package repository

import (
	"context"

	"github.com/sakif/job-board/internal/model"
)

// Counters are the next identifiers the allocator will hand out.
type Counters struct {
	NextPostingID uint32
	NextReplyID   uint64
}

// BoardStore opens transactions over the board state.
type BoardStore interface {
	Begin(ctx context.Context) (BoardTx, error)
}

// BoardTx is one all-or-nothing unit of work.
//
// Insert methods return an apperror.ErrConflict error when the key already
// exists; Get and Delete methods return apperror.ErrNotFound when it doesn't.
// Rollback after Commit is a no-op.
type BoardTx interface {
	// Counters returns ok=false until the board has been initialized.
	Counters(ctx context.Context) (c Counters, ok bool, err error)
	// SetCounters stores c and marks the board initialized.
	SetCounters(ctx context.Context, c Counters) error

	// Posting store. Enumeration order is insertion order.
	InsertPosting(ctx context.Context, p model.Posting) error
	GetPosting(ctx context.Context, id uint32) (*model.Posting, error)
	DeletePosting(ctx context.Context, id uint32) error
	CountPostings(ctx context.Context) (uint64, error)
	PostingsPage(ctx context.Context, offset, limit uint64) ([]model.PostingEntry, error)

	// Ownership index.
	InsertOwner(ctx context.Context, postingID uint32, identity string) error
	OwnerOf(ctx context.Context, postingID uint32) (identity string, ok bool, err error)
	DeleteOwner(ctx context.Context, postingID uint32) error

	// Reply store.
	InsertReply(ctx context.Context, id uint64, r model.Reply) error
	GetReply(ctx context.Context, id uint64) (*model.Reply, error)
	DeleteReply(ctx context.Context, id uint64) error
	CountReplies(ctx context.Context) (uint64, error)

	// Reply index (reply ID → posting ID).
	InsertReplyLink(ctx context.Context, replyID uint64, postingID uint32) error
	// ReplyIDsFor returns, in index order, every reply ID mapped to postingID.
	ReplyIDsFor(ctx context.Context, postingID uint32) ([]uint64, error)
	DeleteReplyLink(ctx context.Context, replyID uint64) error

	Commit() error
	Rollback() error
}

// UserRepository stores the accounts behind caller identities.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
