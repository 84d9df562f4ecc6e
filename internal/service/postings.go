package service

import (
	"context"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

// postingStore keeps postings together with their ownership records: a
// posting exists exactly when its owner is recorded.
type postingStore struct {
	tx      repository.BoardTx
	ids     allocator
	owners  ownershipIndex
	replies replyStore
}

func newPostingStore(tx repository.BoardTx) postingStore {
	return postingStore{
		tx:      tx,
		ids:     allocator{tx: tx},
		owners:  ownershipIndex{tx: tx},
		replies: newReplyStore(tx),
	}
}

func (s postingStore) create(ctx context.Context, owner, title, description, contact string) (*model.Posting, error) {
	id, err := s.ids.nextPostingID(ctx)
	if err != nil {
		return nil, err
	}

	posting := model.Posting{
		ID:          id,
		Title:       title,
		Description: description,
		Contact:     contact,
	}
	if err := s.tx.InsertPosting(ctx, posting); err != nil {
		return nil, err
	}
	if err := s.owners.record(ctx, id, owner); err != nil {
		return nil, err
	}
	return &posting, nil
}

// delete removes the posting, its ownership record, and every reply that
// references it, returning the posting and the number of replies purged.
// requester must be the recorded owner.
func (s postingStore) delete(ctx context.Context, id uint32, requester string) (*model.Posting, int, error) {
	if err := s.owners.authorize(ctx, id, requester); err != nil {
		return nil, 0, err
	}

	removed, err := s.tx.GetPosting(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if err := s.tx.DeletePosting(ctx, id); err != nil {
		return nil, 0, err
	}
	if err := s.owners.remove(ctx, id); err != nil {
		return nil, 0, err
	}
	purged, err := s.replies.purge(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return removed, purged, nil
}

// list returns up to limit postings in insertion order starting at fromIndex.
// A fromIndex past the end yields an empty page; an empty store is an error.
func (s postingStore) list(ctx context.Context, fromIndex, limit uint64) ([]model.PostingEntry, error) {
	total, err := s.tx.CountPostings(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, apperror.EmptyCollection("postings")
	}
	if fromIndex >= total {
		return []model.PostingEntry{}, nil
	}
	if remaining := total - fromIndex; limit > remaining {
		limit = remaining
	}
	return s.tx.PostingsPage(ctx, fromIndex, limit)
}
