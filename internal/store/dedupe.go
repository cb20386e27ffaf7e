package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobpress-engine/internal/domain"
)

// ErrRecordNotFound is returned by Commit when no record was reserved first.
// That is a programming error in the caller, not a recoverable condition.
var ErrRecordNotFound = errors.New("dedupe record not found")

// Lookup fetches the record for a fingerprint. The bool reports presence.
func (s *Store) Lookup(ctx context.Context, fp string) (domain.DedupeRecord, bool, error) {
	var (
		rec     domain.DedupeRecord
		status  string
		lastStr string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT fingerprint, status, post_id, attempts, last_error, last_attempt
FROM dedupe_records
WHERE fingerprint = ?;`, fp).Scan(
		&rec.Fingerprint, &status, &rec.PostID, &rec.Attempts, &rec.LastError, &lastStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DedupeRecord{}, false, nil
	}
	if err != nil {
		return domain.DedupeRecord{}, false, fmt.Errorf("%w: lookup: %v", ErrUnavailable, err)
	}
	rec.Status = domain.Status(status)
	rec.LastAttempt, _ = time.Parse(time.RFC3339, lastStr)
	return rec, true, nil
}

// Reserve atomically creates a pending record if none exists and reports
// whether this call created it. The primary key makes the insert the dedupe
// gate: of any number of concurrent reservations of the same fingerprint,
// within a run or across runs, exactly one wins.
func (s *Store) Reserve(ctx context.Context, fp string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO dedupe_records (fingerprint, status, attempts, last_attempt)
VALUES (?, ?, 0, ?);`,
		fp, string(domain.StatusPending), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("%w: reserve: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: reserve rows: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Commit writes the terminal fields of a previously reserved record.
func (s *Store) Commit(ctx context.Context, fp string, status domain.Status, postID int64, attempts int, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE dedupe_records
SET status = ?, post_id = ?, attempts = ?, last_error = ?, last_attempt = ?
WHERE fingerprint = ?;`,
		string(status), postID, attempts, lastError,
		time.Now().UTC().Format(time.RFC3339), fp,
	)
	if err != nil {
		return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: commit rows: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, fp)
	}
	return nil
}

// ForceReset clears a record back to absent. Only the explicit rebuild
// override reaches this; records are never deleted automatically.
func (s *Store) ForceReset(ctx context.Context, fp string) error {
	if _, err := s.db.ExecContext(ctx, `
DELETE FROM dedupe_records WHERE fingerprint = ?;`, fp); err != nil {
		return fmt.Errorf("%w: force reset: %v", ErrUnavailable, err)
	}
	return nil
}

// ResetFailed clears a record only when it is in failed status, so a rebuild
// re-opens failed listings without touching published or skipped ones.
// Reports whether a record was cleared.
func (s *Store) ResetFailed(ctx context.Context, fp string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM dedupe_records WHERE fingerprint = ? AND status = ?;`,
		fp, string(domain.StatusFailed),
	)
	if err != nil {
		return false, fmt.Errorf("%w: reset failed: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
