package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/job-board/internal/apperror"
	"github.com/sakif/job-board/internal/model"
	"github.com/sakif/job-board/internal/repository"
)

// COMPILE-TIME INTERFACE CHECKS:
// If *DB or *boardTx stops implementing the interface, the build fails here
// instead of somewhere far away in server wiring.
var _ repository.BoardStore = (*DB)(nil)
var _ repository.BoardTx = (*boardTx)(nil)

// Begin starts a SQL transaction for one board operation.
//
// The service commits it when the whole operation succeeded and rolls it back
// otherwise, so every operation is all-or-nothing.
func (db *DB) Begin(ctx context.Context) (repository.BoardTx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	return &boardTx{tx: tx}, nil
}

// boardTx implements repository.BoardTx on top of *sql.Tx.
type boardTx struct {
	tx *sql.Tx
}

func (t *boardTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// Rollback ignores sql.ErrTxDone so it can be deferred after Commit.
func (t *boardTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("sqlite: rolling back transaction: %w", err)
	}
	return nil
}

// REPLY IDS ARE uint64:
// SQLite integers are signed 64-bit, and database/sql refuses uint64 values
// with the high bit set. Reply IDs are therefore stored as their int64 bit
// pattern and converted back on the way out. Nothing orders by reply_id, so
// the sign flip above 2^63 is harmless.
func replyKey(id uint64) int64 { return int64(id) }

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// expectOneRow turns "0 rows affected" into a NotFound error.
func expectOneRow(result sql.Result, resource string, id any) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, fmt.Sprint(id))
	}
	return nil
}

// =========================================================================
// BOARD STATE
// =========================================================================

func (t *boardTx) Counters(ctx context.Context) (repository.Counters, bool, error) {
	var (
		c         repository.Counters
		nextReply int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT next_posting_id, next_reply_id FROM board_state WHERE singleton = 1`,
	).Scan(&c.NextPostingID, &nextReply)
	if err == sql.ErrNoRows {
		return repository.Counters{}, false, nil
	}
	if err != nil {
		return repository.Counters{}, false, fmt.Errorf("sqlite: reading counters: %w", err)
	}
	c.NextReplyID = uint64(nextReply)
	return c, true, nil
}

func (t *boardTx) SetCounters(ctx context.Context, c repository.Counters) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO board_state (singleton, next_posting_id, next_reply_id)
		 VALUES (1, ?, ?)
		 ON CONFLICT(singleton) DO UPDATE SET
		   next_posting_id = excluded.next_posting_id,
		   next_reply_id   = excluded.next_reply_id`,
		int64(c.NextPostingID),
		replyKey(c.NextReplyID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing counters: %w", err)
	}
	return nil
}

// =========================================================================
// POSTINGS
// =========================================================================

func (t *boardTx) InsertPosting(ctx context.Context, p model.Posting) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO postings (id, title, description, contact) VALUES (?, ?, ?, ?)`,
		int64(p.ID), p.Title, p.Description, p.Contact,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("posting", fmt.Sprint(p.ID))
		}
		return fmt.Errorf("sqlite: inserting posting %d: %w", p.ID, err)
	}
	return nil
}

func (t *boardTx) GetPosting(ctx context.Context, id uint32) (*model.Posting, error) {
	var p model.Posting
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, title, description, contact FROM postings WHERE id = ?`,
		int64(id),
	).Scan(&p.ID, &p.Title, &p.Description, &p.Contact)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("posting", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting posting %d: %w", id, err)
	}
	return &p, nil
}

func (t *boardTx) DeletePosting(ctx context.Context, id uint32) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM postings WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("sqlite: deleting posting %d: %w", id, err)
	}
	return expectOneRow(result, "posting", id)
}

func (t *boardTx) CountPostings(ctx context.Context) (uint64, error) {
	var n int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting postings: %w", err)
	}
	return uint64(n), nil
}

// PostingsPage returns postings in insertion order (ORDER BY seq).
//
// The service never asks for more rows than exist, so offset and limit always
// fit in an int64.
func (t *boardTx) PostingsPage(ctx context.Context, offset, limit uint64) ([]model.PostingEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, title, description, contact
		 FROM postings
		 ORDER BY seq
		 LIMIT ? OFFSET ?`,
		int64(limit),
		int64(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing postings: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	page := make([]model.PostingEntry, 0, limit)
	for rows.Next() {
		var p model.Posting
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Contact); err != nil {
			return nil, fmt.Errorf("sqlite: scanning posting row: %w", err)
		}
		page = append(page, model.PostingEntry{ID: p.ID, Posting: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating postings: %w", err)
	}
	return page, nil
}

// =========================================================================
// OWNERSHIP INDEX
// =========================================================================

func (t *boardTx) InsertOwner(ctx context.Context, postingID uint32, identity string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO posting_owners (posting_id, identity) VALUES (?, ?)`,
		int64(postingID), identity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("posting owner", fmt.Sprint(postingID))
		}
		return fmt.Errorf("sqlite: recording owner of posting %d: %w", postingID, err)
	}
	return nil
}

func (t *boardTx) OwnerOf(ctx context.Context, postingID uint32) (string, bool, error) {
	var identity string
	err := t.tx.QueryRowContext(ctx,
		`SELECT identity FROM posting_owners WHERE posting_id = ?`, int64(postingID),
	).Scan(&identity)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: reading owner of posting %d: %w", postingID, err)
	}
	return identity, true, nil
}

func (t *boardTx) DeleteOwner(ctx context.Context, postingID uint32) error {
	result, err := t.tx.ExecContext(ctx,
		`DELETE FROM posting_owners WHERE posting_id = ?`, int64(postingID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting owner of posting %d: %w", postingID, err)
	}
	return expectOneRow(result, "posting owner", postingID)
}

// =========================================================================
// REPLIES
// =========================================================================

func (t *boardTx) InsertReply(ctx context.Context, id uint64, r model.Reply) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO replies (reply_id, github, description, contact) VALUES (?, ?, ?, ?)`,
		replyKey(id), r.GitHub, r.Description, r.Contact,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("reply", fmt.Sprint(id))
		}
		return fmt.Errorf("sqlite: inserting reply %d: %w", id, err)
	}
	return nil
}

func (t *boardTx) GetReply(ctx context.Context, id uint64) (*model.Reply, error) {
	var r model.Reply
	err := t.tx.QueryRowContext(ctx,
		`SELECT github, description, contact FROM replies WHERE reply_id = ?`, replyKey(id),
	).Scan(&r.GitHub, &r.Description, &r.Contact)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reply", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting reply %d: %w", id, err)
	}
	return &r, nil
}

func (t *boardTx) DeleteReply(ctx context.Context, id uint64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM replies WHERE reply_id = ?`, replyKey(id))
	if err != nil {
		return fmt.Errorf("sqlite: deleting reply %d: %w", id, err)
	}
	return expectOneRow(result, "reply", id)
}

func (t *boardTx) CountReplies(ctx context.Context) (uint64, error) {
	var n int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM replies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting replies: %w", err)
	}
	return uint64(n), nil
}

// =========================================================================
// REPLY INDEX
// =========================================================================

func (t *boardTx) InsertReplyLink(ctx context.Context, replyID uint64, postingID uint32) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO reply_postings (reply_id, posting_id) VALUES (?, ?)`,
		replyKey(replyID), int64(postingID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("reply link", fmt.Sprint(replyID))
		}
		return fmt.Errorf("sqlite: linking reply %d: %w", replyID, err)
	}
	return nil
}

// ReplyIDsFor uses idx_reply_postings_posting_id rather than scanning every
// link; the result order (insertion order) is the same either way.
func (t *boardTx) ReplyIDsFor(ctx context.Context, postingID uint32) ([]uint64, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT reply_id FROM reply_postings WHERE posting_id = ? ORDER BY seq`,
		int64(postingID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding replies of posting %d: %w", postingID, err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reply link: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reply links: %w", err)
	}
	return ids, nil
}

func (t *boardTx) DeleteReplyLink(ctx context.Context, replyID uint64) error {
	result, err := t.tx.ExecContext(ctx,
		`DELETE FROM reply_postings WHERE reply_id = ?`, replyKey(replyID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: unlinking reply %d: %w", replyID, err)
	}
	return expectOneRow(result, "reply link", replyID)
}
