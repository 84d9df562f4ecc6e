package service

import (
	"context"

	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

// replyStore keeps replies and the reply index (reply ID → posting ID)
// together: a reply exists exactly when its index entry does.
//
// The index is the only link from a posting to its replies; there is no
// posting → replies map.
type replyStore struct {
	tx  repository.BoardTx
	ids allocator
}

func newReplyStore(tx repository.BoardTx) replyStore {
	return replyStore{tx: tx, ids: allocator{tx: tx}}
}

// create stores a reply to postingID. The posting is not required to exist.
func (s replyStore) create(ctx context.Context, github, description, contact string, postingID uint32) (*model.Reply, error) {
	id, err := s.ids.nextReplyID(ctx)
	if err != nil {
		return nil, err
	}

	reply := model.Reply{
		GitHub:      github,
		Description: description,
		Contact:     contact,
	}
	if err := s.tx.InsertReply(ctx, id, reply); err != nil {
		return nil, err
	}
	if err := s.tx.InsertReplyLink(ctx, id, postingID); err != nil {
		return nil, err
	}
	return &reply, nil
}

// repliesFor returns the replies of postingID in index order.
func (s replyStore) repliesFor(ctx context.Context, postingID uint32) ([]model.Reply, error) {
	if _, err := s.ids.counters(ctx); err != nil {
		return nil, err
	}

	ids, err := s.tx.ReplyIDsFor(ctx, postingID)
	if err != nil {
		return nil, err
	}

	replies := make([]model.Reply, 0, len(ids))
	for _, id := range ids {
		r, err := s.tx.GetReply(ctx, id)
		if err != nil {
			return nil, err
		}
		replies = append(replies, *r)
	}
	return replies, nil
}

// purge removes every reply of postingID and its index entry. It is the
// cascade step of a posting deletion and returns how many replies went.
func (s replyStore) purge(ctx context.Context, postingID uint32) (int, error) {
	ids, err := s.tx.ReplyIDsFor(ctx, postingID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.tx.DeleteReply(ctx, id); err != nil {
			return 0, err
		}
		if err := s.tx.DeleteReplyLink(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
