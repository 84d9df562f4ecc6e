package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
	"github.com/sakif/job-board/internal/repository/memory"
	"github.com/sakif/job-board/internal/repository/sqlite"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

// eachStore runs fn once per substrate so the engine is checked against
// both the in-memory store and SQLite.
func eachStore(t *testing.T, fn func(t *testing.T, store repository.BoardStore)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, memory.New())
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, db)
	})
}

func newInitializedBoard(t *testing.T, store repository.BoardStore) *Board {
	t.Helper()
	b := NewBoard(store)
	require.NoError(t, b.Initialize(context.Background()))
	return b
}

func mustCreatePosting(t *testing.T, b *Board, owner, title string) *model.Posting {
	t.Helper()
	p, err := b.CreatePosting(context.Background(), owner, title, title+" description", title+"@example.com")
	require.NoError(t, err)
	return p
}

func mustCreateReply(t *testing.T, b *Board, github string, postingID uint32) *model.Reply {
	t.Helper()
	r, err := b.CreateReply(context.Background(), github, "hire me", github+"@example.com", postingID)
	require.NoError(t, err)
	return r
}

func presetCounters(t *testing.T, store repository.BoardStore, c repository.Counters) {
	t.Helper()
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetCounters(ctx, c))
	require.NoError(t, tx.Commit())
}

func postingIDs(entries []model.PostingEntry) []uint32 {
	ids := make([]uint32, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// =========================================================================
// INITIALIZE
// =========================================================================

func TestInitialize(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := NewBoard(store)

		require.NoError(t, b.Initialize(ctx))

		stats, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{}, *stats)

		err = b.Initialize(ctx)
		assert.ErrorIs(t, err, apperror.ErrAlreadyInitialized)
	})
}

func TestOperationsRequireInitialize(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := NewBoard(store)

		_, err := b.CreatePosting(ctx, alice, "t", "d", "c")
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)

		_, _, err = b.DeletePosting(ctx, alice, 0)
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)

		_, err = b.ListPostings(ctx, 0, 10)
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)

		_, err = b.CreateReply(ctx, "gh", "d", "c", 0)
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)

		_, err = b.ListReplies(ctx, 0)
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)

		_, err = b.Stats(ctx)
		assert.ErrorIs(t, err, apperror.ErrNotInitialized)
	})
}

// =========================================================================
// POSTINGS
// =========================================================================

func TestCreatePosting_IDsFollowCallOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		const n = 12
		for i := 0; i < n; i++ {
			p := mustCreatePosting(t, b, alice, fmt.Sprintf("posting %d", i))
			assert.Equal(t, uint32(i), p.ID)
		}

		entries, err := b.ListPostings(ctx, 0, n)
		require.NoError(t, err)
		require.Len(t, entries, n)
		for i, e := range entries {
			assert.Equal(t, uint32(i), e.ID)
			assert.Equal(t, e.ID, e.Posting.ID)
			assert.Equal(t, fmt.Sprintf("posting %d", i), e.Posting.Title)
		}
	})
}

func TestCreatePosting_ReturnsStoredRecord(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p, err := b.CreatePosting(ctx, alice, "Go developer", "Remote, full time", "jobs@example.com")
		require.NoError(t, err)
		assert.Equal(t, model.Posting{ID: 0, Title: "Go developer", Description: "Remote, full time", Contact: "jobs@example.com"}, *p)

		entries, err := b.ListPostings(ctx, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, []model.PostingEntry{{ID: 0, Posting: *p}}, entries)
	})
}

func TestListPostings_Paging(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		_, err := b.ListPostings(ctx, 0, 10)
		assert.ErrorIs(t, err, apperror.ErrEmptyCollection, "empty store")

		for i := 0; i < 5; i++ {
			mustCreatePosting(t, b, alice, fmt.Sprintf("p%d", i))
		}

		tests := []struct {
			name      string
			fromIndex uint64
			limit     uint64
			want      []uint32
		}{
			{"first page", 0, 2, []uint32{0, 1}},
			{"middle page", 2, 2, []uint32{2, 3}},
			{"short last page", 4, 2, []uint32{4}},
			{"limit beyond total", 0, 100, []uint32{0, 1, 2, 3, 4}},
			{"zero limit", 1, 0, []uint32{}},
			{"from at total", 5, 10, []uint32{}},
			{"from past total", 50, 10, []uint32{}},
			{"huge limit", 3, math.MaxUint64, []uint32{3, 4}},
			{"huge from", math.MaxUint64, math.MaxUint64, []uint32{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				entries, err := b.ListPostings(ctx, tt.fromIndex, tt.limit)
				require.NoError(t, err)
				assert.Equal(t, tt.want, postingIDs(entries))
			})
		}
	})
}

func TestListPostings_EmptyAgainAfterDeletingEverything(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p := mustCreatePosting(t, b, alice, "only")
		_, _, err := b.DeletePosting(ctx, alice, p.ID)
		require.NoError(t, err)

		_, err = b.ListPostings(ctx, 0, 10)
		assert.ErrorIs(t, err, apperror.ErrEmptyCollection)
	})
}

func TestDeletePosting_Authorization(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p0 := mustCreatePosting(t, b, alice, "a")
		mustCreatePosting(t, b, bob, "b")
		mustCreateReply(t, b, "carol", p0.ID)

		before, err := b.ListPostings(ctx, 0, 10)
		require.NoError(t, err)

		_, _, err = b.DeletePosting(ctx, bob, p0.ID)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)

		after, err := b.ListPostings(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, before, after, "a rejected delete leaves the listing unchanged")

		replies, err := b.ListReplies(ctx, p0.ID)
		require.NoError(t, err)
		assert.Len(t, replies, 1)

		_, _, err = b.DeletePosting(ctx, alice, 99)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestDeletePosting_CascadesToReplies(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p0 := mustCreatePosting(t, b, alice, "a")
		p1 := mustCreatePosting(t, b, alice, "b")
		mustCreateReply(t, b, "r1", p0.ID)
		keep := mustCreateReply(t, b, "r2", p1.ID)
		mustCreateReply(t, b, "r3", p0.ID)

		removed, purged, err := b.DeletePosting(ctx, alice, p0.ID)
		require.NoError(t, err)
		assert.Equal(t, *p0, *removed)
		assert.Equal(t, 2, purged, "r1 and r3 reference the deleted posting")

		replies, err := b.ListReplies(ctx, p0.ID)
		require.NoError(t, err)
		assert.Empty(t, replies)

		replies, err = b.ListReplies(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, []model.Reply{*keep}, replies)

		stats, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{Postings: 1, Replies: 1, NextPostingID: 2, NextReplyID: 3}, *stats)

		_, _, err = b.DeletePosting(ctx, alice, p0.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound, "a deleted posting cannot be deleted again")
	})
}

func TestDeletePosting_IDsAreNotReused(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p := mustCreatePosting(t, b, alice, "a")
		_, _, err := b.DeletePosting(ctx, alice, p.ID)
		require.NoError(t, err)

		next := mustCreatePosting(t, b, alice, "b")
		assert.Equal(t, uint32(1), next.ID)
	})
}

// =========================================================================
// REPLIES
// =========================================================================

func TestListReplies_MatchesPostingRegardlessOfInterleaving(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		p0 := mustCreatePosting(t, b, alice, "a")
		p1 := mustCreatePosting(t, b, bob, "b")

		var want0, want1 []model.Reply
		for i := 0; i < 6; i++ {
			target := p0.ID
			if i%3 == 1 {
				target = p1.ID
			}
			r := mustCreateReply(t, b, fmt.Sprintf("dev%d", i), target)
			if target == p0.ID {
				want0 = append(want0, *r)
			} else {
				want1 = append(want1, *r)
			}
		}

		got0, err := b.ListReplies(ctx, p0.ID)
		require.NoError(t, err)
		assert.Equal(t, want0, got0)

		got1, err := b.ListReplies(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, want1, got1)

		none, err := b.ListReplies(ctx, 77)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestCreateReply_TargetNeedNotExist(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		r := mustCreateReply(t, b, "early-bird", 5)

		replies, err := b.ListReplies(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []model.Reply{*r}, replies)
	})
}

// =========================================================================
// SCENARIO
// =========================================================================

func TestScenario(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := newInitializedBoard(t, store)

		a := mustCreatePosting(t, b, alice, "A")
		bp := mustCreatePosting(t, b, alice, "B")

		entries, err := b.ListPostings(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1}, postingIDs(entries))

		r := mustCreateReply(t, b, "R", 0)
		replies, err := b.ListReplies(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []model.Reply{*r}, replies)

		_, _, err = b.DeletePosting(ctx, alice, a.ID)
		require.NoError(t, err)

		entries, err = b.ListPostings(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, *bp, entries[0].Posting)

		replies, err = b.ListReplies(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, replies)

		_, _, err = b.DeletePosting(ctx, bob, 1)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)

		entries, err = b.ListPostings(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1}, postingIDs(entries))
	})
}

// =========================================================================
// OVERFLOW
// =========================================================================

func TestIdentifierExhaustion(t *testing.T) {
	eachStore(t, func(t *testing.T, store repository.BoardStore) {
		ctx := context.Background()
		b := NewBoard(store)
		presetCounters(t, store, repository.Counters{NextPostingID: math.MaxUint32 - 1, NextReplyID: math.MaxUint64 - 1})

		last := mustCreatePosting(t, b, alice, "last")
		assert.Equal(t, uint32(math.MaxUint32-1), last.ID)

		_, err := b.CreatePosting(ctx, alice, "one too many", "", "")
		assert.ErrorIs(t, err, apperror.ErrExhausted)

		mustCreateReply(t, b, "last", last.ID)
		_, err = b.CreateReply(ctx, "one too many", "", "", last.ID)
		assert.ErrorIs(t, err, apperror.ErrExhausted)

		stats, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{
			Postings:      1,
			Replies:       1,
			NextPostingID: math.MaxUint32,
			NextReplyID:   math.MaxUint64,
		}, *stats, "failed allocations leave the counters where they were")
	})
}

// =========================================================================
// ROLLBACK
// =========================================================================

var errInjected = errors.New("injected failure")

// failingStore hands out transactions that fail on the named method.
type failingStore struct {
	repository.BoardStore
	failOn string
}

func (s *failingStore) Begin(ctx context.Context) (repository.BoardTx, error) {
	tx, err := s.BoardStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{BoardTx: tx, failOn: s.failOn}, nil
}

type failingTx struct {
	repository.BoardTx
	failOn string
}

func (t *failingTx) InsertOwner(ctx context.Context, postingID uint32, identity string) error {
	if t.failOn == "InsertOwner" {
		return errInjected
	}
	return t.BoardTx.InsertOwner(ctx, postingID, identity)
}

func (t *failingTx) InsertReplyLink(ctx context.Context, replyID uint64, postingID uint32) error {
	if t.failOn == "InsertReplyLink" {
		return errInjected
	}
	return t.BoardTx.InsertReplyLink(ctx, replyID, postingID)
}

func (t *failingTx) DeleteReplyLink(ctx context.Context, replyID uint64) error {
	if t.failOn == "DeleteReplyLink" {
		return errInjected
	}
	return t.BoardTx.DeleteReplyLink(ctx, replyID)
}

func TestFailedOperationsLeaveNoTrace(t *testing.T) {
	tests := []struct {
		failOn string
		op     func(ctx context.Context, b *Board) error
	}{
		{
			failOn: "InsertOwner",
			op: func(ctx context.Context, b *Board) error {
				_, err := b.CreatePosting(ctx, alice, "half-made", "", "")
				return err
			},
		},
		{
			failOn: "InsertReplyLink",
			op: func(ctx context.Context, b *Board) error {
				_, err := b.CreateReply(ctx, "half-made", "", "", 0)
				return err
			},
		},
		{
			failOn: "DeleteReplyLink",
			op: func(ctx context.Context, b *Board) error {
				_, _, err := b.DeletePosting(ctx, alice, 0)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			eachStore(t, func(t *testing.T, store repository.BoardStore) {
				ctx := context.Background()
				b := newInitializedBoard(t, store)
				mustCreatePosting(t, b, alice, "a")
				mustCreatePosting(t, b, bob, "b")
				mustCreateReply(t, b, "r1", 0)
				mustCreateReply(t, b, "r2", 1)
				mustCreateReply(t, b, "r3", 0)

				statsBefore, err := b.Stats(ctx)
				require.NoError(t, err)
				postingsBefore, err := b.ListPostings(ctx, 0, 10)
				require.NoError(t, err)
				repliesBefore, err := b.ListReplies(ctx, 0)
				require.NoError(t, err)

				broken := NewBoard(&failingStore{BoardStore: store, failOn: tt.failOn})
				err = tt.op(ctx, broken)
				require.ErrorIs(t, err, errInjected)

				statsAfter, err := b.Stats(ctx)
				require.NoError(t, err)
				assert.Equal(t, statsBefore, statsAfter)

				postingsAfter, err := b.ListPostings(ctx, 0, 10)
				require.NoError(t, err)
				assert.Equal(t, postingsBefore, postingsAfter)

				repliesAfter, err := b.ListReplies(ctx, 0)
				require.NoError(t, err)
				assert.Equal(t, repliesBefore, repliesAfter)
			})
		})
	}
}
