package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/cache"
	"github.com/sakif/job-board/internal/model"
)

// Page size bounds for list callers.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// BoardService is the entry point the HTTP handlers and the CLI use.
//
// It validates and normalises input, then delegates to the Board engine.
// Listing results go through a read-through cache that every committed
// write invalidates. writes counts committed writes; a page read before a
// write is never left in the cache after that write's invalidation.
type BoardService struct {
	board    *Board
	cache    cache.Cache
	cacheTTL time.Duration
	text     textCleaner
	logger   *slog.Logger
	writes   atomic.Uint64
}

// NewBoardService wires a BoardService. A nil cache disables caching.
func NewBoardService(board *Board, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *BoardService {
	if c == nil {
		c = cache.Nop{}
	}
	return &BoardService{
		board:    board,
		cache:    c,
		cacheTTL: cacheTTL,
		text:     newTextCleaner(),
		logger:   logger,
	}
}

// Initialize creates the board state.
func (s *BoardService) Initialize(ctx context.Context) error {
	if err := s.board.Initialize(ctx); err != nil {
		return err
	}
	s.logger.Info("board initialized")
	return nil
}

// EnsureInitialized initializes the board unless it already exists.
// Servers call it at startup.
func (s *BoardService) EnsureInitialized(ctx context.Context) error {
	err := s.Initialize(ctx)
	if errors.Is(err, apperror.ErrAlreadyInitialized) {
		return nil
	}
	return err
}

// CreatePosting validates the input and stores a posting owned by owner.
func (s *BoardService) CreatePosting(ctx context.Context, owner, title, description, contact string) (*model.Posting, error) {
	if err := checkRequired("identity", owner); err != nil {
		return nil, err
	}

	title, description, contact = normalize(title), normalize(description), normalize(contact)
	if err := checkLength("title", title, MaxTitleLength); err != nil {
		return nil, err
	}
	if err := checkLength("description", description, MaxDescriptionLength); err != nil {
		return nil, err
	}
	if err := checkLength("contact", contact, MaxContactLength); err != nil {
		return nil, err
	}

	title = s.text.plain(title)
	description = s.text.rich(description)
	contact = s.text.plain(contact)
	if err := checkRequired("title", title); err != nil {
		return nil, err
	}

	posting, err := s.board.CreatePosting(ctx, owner, title, description, contact)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.PostingsPrefix)

	s.logger.Info("posting created",
		slog.Uint64("postingID", uint64(posting.ID)),
		slog.String("owner", owner),
	)
	return posting, nil
}

// DeletePosting removes a posting and its replies on behalf of requester.
func (s *BoardService) DeletePosting(ctx context.Context, requester string, id uint32) (*model.Posting, error) {
	if requester == "" {
		return nil, apperror.Unauthorized("an identity is required to remove a posting")
	}

	removed, purged, err := s.board.DeletePosting(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.PostingsPrefix, cache.RepliesKey(id))

	s.logger.Info("posting deleted",
		slog.Uint64("postingID", uint64(id)),
		slog.String("requester", requester),
		slog.Int("repliesRemoved", purged),
	)
	return removed, nil
}

// ListPostings returns one page of postings. limit is capped at MaxListLimit.
func (s *BoardService) ListPostings(ctx context.Context, fromIndex, limit uint64) ([]model.PostingEntry, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	key := cache.PostingsKey(fromIndex, limit)
	var entries []model.PostingEntry
	if s.cached(ctx, key, &entries) {
		return entries, nil
	}

	gen := s.writes.Load()
	entries, err := s.board.ListPostings(ctx, fromIndex, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, gen, key, entries)
	return entries, nil
}

// CreateReply validates the input and stores a reply to postingID.
func (s *BoardService) CreateReply(ctx context.Context, github, description, contact string, postingID uint32) (*model.Reply, error) {
	github, description, contact = normalize(github), normalize(description), normalize(contact)
	if err := checkLength("github", github, MaxGitHubLength); err != nil {
		return nil, err
	}
	if err := checkLength("description", description, MaxDescriptionLength); err != nil {
		return nil, err
	}
	if err := checkLength("contact", contact, MaxContactLength); err != nil {
		return nil, err
	}

	github = s.text.plain(github)
	description = s.text.rich(description)
	contact = s.text.plain(contact)
	if err := checkRequired("github", github); err != nil {
		return nil, err
	}

	reply, err := s.board.CreateReply(ctx, github, description, contact, postingID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.RepliesKey(postingID))

	s.logger.Info("reply created",
		slog.Uint64("postingID", uint64(postingID)),
		slog.String("github", github),
	)
	return reply, nil
}

// ListReplies returns the replies to postingID.
func (s *BoardService) ListReplies(ctx context.Context, postingID uint32) ([]model.Reply, error) {
	key := cache.RepliesKey(postingID)
	var replies []model.Reply
	if s.cached(ctx, key, &replies) {
		return replies, nil
	}

	gen := s.writes.Load()
	replies, err := s.board.ListReplies(ctx, postingID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, gen, key, replies)
	return replies, nil
}

// Stats reports record counts and the next identifiers.
func (s *BoardService) Stats(ctx context.Context) (*Stats, error) {
	return s.board.Stats(ctx)
}

func (s *BoardService) cached(ctx context.Context, key string, dst any) bool {
	b, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.Warn("discarding unreadable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// store caches v, read when the write count was gen. A write that commits
// after that read has bumped the count before invalidating, so the entry is
// either skipped or removed again once Set returns.
func (s *BoardService) store(ctx context.Context, gen uint64, key string, v any) {
	if s.writes.Load() != gen {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.cache.Set(ctx, key, b, s.cacheTTL)
	if s.writes.Load() != gen {
		s.cache.InvalidatePrefix(ctx, key)
	}
}

// invalidate records a committed write, then drops the cached entries it
// made stale.
func (s *BoardService) invalidate(ctx context.Context, prefixes ...string) {
	s.writes.Add(1)
	for _, p := range prefixes {
		s.cache.InvalidatePrefix(ctx, p)
	}
}
