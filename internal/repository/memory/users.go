package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

var _ repository.UserRepository = (*Users)(nil)

// Users is a process-local repository.UserRepository.
type Users struct {
	mu       sync.Mutex
	byID     map[string]*model.User
	byGitHub map[int64]string
}

func NewUsers() *Users {
	return &Users{
		byID:     make(map[string]*model.User),
		byGitHub: make(map[int64]string),
	}
}

// Upsert keys users by GitHub ID. A returning user keeps their internal ID.
func (u *Users) Upsert(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := time.Now()
	if id, ok := u.byGitHub[user.GitHubID]; ok {
		stored := u.byID[id]
		stored.Login = user.Login
		stored.Email = user.Email
		stored.AvatarURL = user.AvatarURL
		stored.UpdatedAt = now
		*user = *stored
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	u.byID[user.ID] = &stored
	u.byGitHub[user.GitHubID] = user.ID
	return nil
}

func (u *Users) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	stored, ok := u.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *stored
	return &copied, nil
}
