package service

import (
	"context"
	"fmt"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/repository"
)

// ownershipIndex maps a posting ID to the identity that created it.
// An entry is written once when the posting is created and removed together
// with the posting; it is never overwritten.
type ownershipIndex struct {
	tx repository.BoardTx
}

func (o ownershipIndex) record(ctx context.Context, postingID uint32, identity string) error {
	return o.tx.InsertOwner(ctx, postingID, identity)
}

func (o ownershipIndex) ownerOf(ctx context.Context, postingID uint32) (string, bool, error) {
	return o.tx.OwnerOf(ctx, postingID)
}

// authorize allows a mutation of postingID only when requester is its
// recorded owner. A posting without an ownership record does not exist.
func (o ownershipIndex) authorize(ctx context.Context, postingID uint32, requester string) error {
	owner, ok, err := o.ownerOf(ctx, postingID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("posting", fmt.Sprint(postingID))
	}
	if owner != requester {
		return apperror.Unauthorized("addresses do not match; you do not have permission to remove this posting")
	}
	return nil
}

func (o ownershipIndex) remove(ctx context.Context, postingID uint32) error {
	return o.tx.DeleteOwner(ctx, postingID)
}
