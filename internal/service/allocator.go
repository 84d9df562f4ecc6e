package service

import (
	"context"
	"math"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/repository"
)

// allocator hands out posting and reply identifiers from the counters stored
// in the board state. Each call returns the current value and stores the
// incremented one, so identifiers are never reused even after deletion.
//
// A counter that has reached its type's maximum is exhausted: the call fails
// instead of wrapping around to an identifier that was already issued.
type allocator struct {
	tx repository.BoardTx
}

// counters loads the board counters, failing if the board was never initialized.
func (a allocator) counters(ctx context.Context) (repository.Counters, error) {
	c, ok, err := a.tx.Counters(ctx)
	if err != nil {
		return repository.Counters{}, err
	}
	if !ok {
		return repository.Counters{}, apperror.NotInitialized()
	}
	return c, nil
}

func (a allocator) nextPostingID(ctx context.Context) (uint32, error) {
	c, err := a.counters(ctx)
	if err != nil {
		return 0, err
	}
	if c.NextPostingID == math.MaxUint32 {
		return 0, apperror.Exhausted("posting")
	}
	id := c.NextPostingID
	c.NextPostingID++
	if err := a.tx.SetCounters(ctx, c); err != nil {
		return 0, err
	}
	return id, nil
}

func (a allocator) nextReplyID(ctx context.Context) (uint64, error) {
	c, err := a.counters(ctx)
	if err != nil {
		return 0, err
	}
	if c.NextReplyID == math.MaxUint64 {
		return 0, apperror.Exhausted("reply")
	}
	id := c.NextReplyID
	c.NextReplyID++
	if err := a.tx.SetCounters(ctx, c); err != nil {
		return 0, err
	}
	return id, nil
}
