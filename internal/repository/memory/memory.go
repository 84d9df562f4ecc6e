// Package memory implements the board repository entirely in process memory.
//
// All persisted state lives in one State value owned by the Store. A
// transaction holds the Store's lock from Begin until Commit or Rollback and
// records an undo step for every mutation, so Rollback restores the state
// exactly, including the enumeration order of the maps.
//
// The reply index is scanned linearly: ReplyIDsFor visits every entry ever
// written and not yet removed. The SQLite repository answers the same
// question with an index instead.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

var _ repository.BoardStore = (*Store)(nil)
var _ repository.BoardTx = (*Tx)(nil)

// ErrTxDone is returned by any use of a transaction after Commit or Rollback.
var ErrTxDone = errors.New("memory: transaction has already been committed or rolled back")

// State is the complete board: four maps and two counters.
type State struct {
	initialized bool
	counters    repository.Counters
	postings    *orderedMap[uint32, model.Posting]
	owners      *orderedMap[uint32, string]
	replies     *orderedMap[uint64, model.Reply]
	replyIndex  *orderedMap[uint64, uint32]
}

func newState() *State {
	return &State{
		postings:   newOrderedMap[uint32, model.Posting](),
		owners:     newOrderedMap[uint32, string](),
		replies:    newOrderedMap[uint64, model.Reply](),
		replyIndex: newOrderedMap[uint64, uint32](),
	}
}

// Store is an in-memory repository.BoardStore.
type Store struct {
	mu    sync.Mutex
	state *State
}

// New returns an empty, uninitialized store.
func New() *Store {
	return &Store{state: newState()}
}

// Begin locks the store until the returned transaction finishes.
func (s *Store) Begin(ctx context.Context) (repository.BoardTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: beginning transaction: %w", err)
	}
	s.mu.Lock()
	return &Tx{store: s, state: s.state}, nil
}

// Tx is a transaction over a Store.
type Tx struct {
	store *Store
	state *State
	undo  []func()
	done  bool
}

func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.finish()
	return nil
}

func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.finish()
	return nil
}

func (tx *Tx) finish() {
	tx.done = true
	tx.undo = nil
	tx.store.mu.Unlock()
}

func (tx *Tx) check() error {
	if tx.done {
		return ErrTxDone
	}
	return nil
}

func (tx *Tx) Counters(_ context.Context) (repository.Counters, bool, error) {
	if err := tx.check(); err != nil {
		return repository.Counters{}, false, err
	}
	return tx.state.counters, tx.state.initialized, nil
}

func (tx *Tx) SetCounters(_ context.Context, c repository.Counters) error {
	if err := tx.check(); err != nil {
		return err
	}
	prev, prevInit := tx.state.counters, tx.state.initialized
	tx.state.counters, tx.state.initialized = c, true
	tx.undo = append(tx.undo, func() {
		tx.state.counters, tx.state.initialized = prev, prevInit
	})
	return nil
}

// =========================================================================
// POSTINGS
// =========================================================================

func (tx *Tx) InsertPosting(_ context.Context, p model.Posting) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !tx.state.postings.insert(p.ID, p) {
		return apperror.Conflict("posting", fmt.Sprint(p.ID))
	}
	tx.undo = append(tx.undo, func() { tx.state.postings.remove(p.ID) })
	return nil
}

func (tx *Tx) GetPosting(_ context.Context, id uint32) (*model.Posting, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	p, ok := tx.state.postings.get(id)
	if !ok {
		return nil, apperror.NotFound("posting", fmt.Sprint(id))
	}
	return &p, nil
}

func (tx *Tx) DeletePosting(_ context.Context, id uint32) error {
	if err := tx.check(); err != nil {
		return err
	}
	p, pos, ok := tx.state.postings.remove(id)
	if !ok {
		return apperror.NotFound("posting", fmt.Sprint(id))
	}
	tx.undo = append(tx.undo, func() { tx.state.postings.insertAt(pos, id, p) })
	return nil
}

func (tx *Tx) CountPostings(_ context.Context) (uint64, error) {
	if err := tx.check(); err != nil {
		return 0, err
	}
	return uint64(tx.state.postings.len()), nil
}

func (tx *Tx) PostingsPage(_ context.Context, offset, limit uint64) ([]model.PostingEntry, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	total := uint64(tx.state.postings.len())
	if offset >= total {
		return []model.PostingEntry{}, nil
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}

	page := make([]model.PostingEntry, 0, end-offset)
	for _, id := range tx.state.postings.keys[offset:end] {
		p, _ := tx.state.postings.get(id)
		page = append(page, model.PostingEntry{ID: id, Posting: p})
	}
	return page, nil
}

// =========================================================================
// OWNERSHIP INDEX
// =========================================================================

func (tx *Tx) InsertOwner(_ context.Context, postingID uint32, identity string) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !tx.state.owners.insert(postingID, identity) {
		return apperror.Conflict("posting owner", fmt.Sprint(postingID))
	}
	tx.undo = append(tx.undo, func() { tx.state.owners.remove(postingID) })
	return nil
}

func (tx *Tx) OwnerOf(_ context.Context, postingID uint32) (string, bool, error) {
	if err := tx.check(); err != nil {
		return "", false, err
	}
	identity, ok := tx.state.owners.get(postingID)
	return identity, ok, nil
}

func (tx *Tx) DeleteOwner(_ context.Context, postingID uint32) error {
	if err := tx.check(); err != nil {
		return err
	}
	identity, pos, ok := tx.state.owners.remove(postingID)
	if !ok {
		return apperror.NotFound("posting owner", fmt.Sprint(postingID))
	}
	tx.undo = append(tx.undo, func() { tx.state.owners.insertAt(pos, postingID, identity) })
	return nil
}

// =========================================================================
// REPLIES
// =========================================================================

func (tx *Tx) InsertReply(_ context.Context, id uint64, r model.Reply) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !tx.state.replies.insert(id, r) {
		return apperror.Conflict("reply", fmt.Sprint(id))
	}
	tx.undo = append(tx.undo, func() { tx.state.replies.remove(id) })
	return nil
}

func (tx *Tx) GetReply(_ context.Context, id uint64) (*model.Reply, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	r, ok := tx.state.replies.get(id)
	if !ok {
		return nil, apperror.NotFound("reply", fmt.Sprint(id))
	}
	return &r, nil
}

func (tx *Tx) DeleteReply(_ context.Context, id uint64) error {
	if err := tx.check(); err != nil {
		return err
	}
	r, pos, ok := tx.state.replies.remove(id)
	if !ok {
		return apperror.NotFound("reply", fmt.Sprint(id))
	}
	tx.undo = append(tx.undo, func() { tx.state.replies.insertAt(pos, id, r) })
	return nil
}

func (tx *Tx) CountReplies(_ context.Context) (uint64, error) {
	if err := tx.check(); err != nil {
		return 0, err
	}
	return uint64(tx.state.replies.len()), nil
}

// =========================================================================
// REPLY INDEX
// =========================================================================

func (tx *Tx) InsertReplyLink(_ context.Context, replyID uint64, postingID uint32) error {
	if err := tx.check(); err != nil {
		return err
	}
	if !tx.state.replyIndex.insert(replyID, postingID) {
		return apperror.Conflict("reply link", fmt.Sprint(replyID))
	}
	tx.undo = append(tx.undo, func() { tx.state.replyIndex.remove(replyID) })
	return nil
}

// ReplyIDsFor scans the whole reply index.
func (tx *Tx) ReplyIDsFor(_ context.Context, postingID uint32) ([]uint64, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	var ids []uint64
	tx.state.replyIndex.each(func(replyID uint64, pid uint32) bool {
		if pid == postingID {
			ids = append(ids, replyID)
		}
		return true
	})
	return ids, nil
}

func (tx *Tx) DeleteReplyLink(_ context.Context, replyID uint64) error {
	if err := tx.check(); err != nil {
		return err
	}
	postingID, pos, ok := tx.state.replyIndex.remove(replyID)
	if !ok {
		return apperror.NotFound("reply link", fmt.Sprint(replyID))
	}
	tx.undo = append(tx.undo, func() { tx.state.replyIndex.insertAt(pos, replyID, postingID) })
	return nil
}
