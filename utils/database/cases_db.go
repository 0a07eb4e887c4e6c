package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"appeal-bot/model"
)

// CreateCase inserts a new PENDING case. The partial unique index on pending
// cases turns a concurrent duplicate submission into ErrDuplicatePending.
func (s *Store) CreateCase(ctx context.Context, c *model.Case) error {
	c.Verdict = model.VerdictPending
	c.AppealedAt = c.AppealedAt.UTC()
	query := `INSERT INTO cases (id, game, appealer_discord_id, appealer_roblox_id, appeal_platform, appeal_verdict, appeal_reason, punishment_type, punishment_reason, video_url, channel_id, appealed_at)
		VALUES (:id, :game, :appealer_discord_id, :appealer_roblox_id, :appeal_platform, :appeal_verdict, :appeal_reason, :punishment_type, :punishment_reason, :video_url, :channel_id, :appealed_at)`
	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePending
		}
		return fmt.Errorf("failed to insert case %s: %w", c.ID, err)
	}
	return nil
}

// FindPendingCase returns the PENDING case for the tuple, or ErrNotFound.
func (s *Store) FindPendingCase(ctx context.Context, game string, punishment model.PunishmentType, appealerID string, platform model.Platform) (*model.Case, error) {
	var c model.Case
	query := `SELECT * FROM cases WHERE game = ? AND punishment_type = ? AND appealer_discord_id = ? AND appeal_platform = ? AND appeal_verdict = 'PENDING' LIMIT 1`
	if err := s.db.GetContext(ctx, &c, query, game, punishment, appealerID, platform); err != nil {
		return nil, notFound(err, "failed to find pending case")
	}
	return &c, nil
}

func (s *Store) FindCaseByID(ctx context.Context, id string) (*model.Case, error) {
	var c model.Case
	if err := s.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE id = ?`, id); err != nil {
		return nil, notFound(err, fmt.Sprintf("failed to get case %s", id))
	}
	return &c, nil
}

func (s *Store) FindCaseByChannel(ctx context.Context, channelID string) (*model.Case, error) {
	var c model.Case
	if err := s.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE channel_id = ? LIMIT 1`, channelID); err != nil {
		return nil, notFound(err, fmt.Sprintf("failed to get case for channel %s", channelID))
	}
	return &c, nil
}

// CasesOf returns every case filed by either identity, most recent first.
func (s *Store) CasesOf(ctx context.Context, discordID, robloxID string) ([]model.Case, error) {
	var cases []model.Case
	query := `SELECT * FROM cases WHERE appealer_discord_id = ? OR appealer_roblox_id = ? ORDER BY appealed_at DESC`
	if err := s.db.SelectContext(ctx, &cases, query, discordID, robloxID); err != nil {
		return nil, fmt.Errorf("failed to list cases of %s/%s: %w", discordID, robloxID, err)
	}
	return cases, nil
}

// CloseCase applies a verdict. The update only matches PENDING rows, so a
// closed case is never reopened or overwritten.
func (s *Store) CloseCase(ctx context.Context, id string, d model.VerdictDecision) (*model.Case, error) {
	if d.Verdict != model.VerdictAccepted && d.Verdict != model.VerdictRejected {
		return nil, fmt.Errorf("invalid verdict %q", d.Verdict)
	}
	query := `UPDATE cases SET appeal_verdict = ?, verdict_reason = ?, verdict_by = ?, closed_at = ?
		WHERE id = ? AND appeal_verdict = 'PENDING'`
	res, err := s.db.ExecContext(ctx, query, d.Verdict, d.Reason, d.IssuedBy, d.IssuedAt.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to close case %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected for case %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.FindCaseByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotPending
	}
	return s.FindCaseByID(ctx, id)
}

// FindCleanupCandidates returns closed cases not yet cleaned up that closed at or before closedBefore.
func (s *Store) FindCleanupCandidates(ctx context.Context, closedBefore time.Time) ([]model.Case, error) {
	var cases []model.Case
	query := `SELECT * FROM cases
		WHERE appeal_verdict != 'PENDING' AND closed_at IS NOT NULL AND cleaned_up_at IS NULL AND closed_at <= ?
		ORDER BY closed_at ASC`
	if err := s.db.SelectContext(ctx, &cases, query, closedBefore.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list cleanup candidates: %w", err)
	}
	return cases, nil
}

// MarkCleanedUp sets the cleanup timestamp of a closed case.
func (s *Store) MarkCleanedUp(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE cases SET cleaned_up_at = ? WHERE id = ? AND closed_at IS NOT NULL AND cleaned_up_at IS NULL`
	res, err := s.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark case %s cleaned up: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CaseStats summarises the case table for the status command.
type CaseStats struct {
	Pending         int `db:"pending"`
	Closed          int `db:"closed"`
	AwaitingCleanup int `db:"awaiting_cleanup"`
}

func (s *Store) CaseStats(ctx context.Context) (CaseStats, error) {
	var stats CaseStats
	query := `SELECT
		COALESCE(SUM(CASE WHEN appeal_verdict = 'PENDING' THEN 1 ELSE 0 END), 0) AS pending,
		COALESCE(SUM(CASE WHEN appeal_verdict != 'PENDING' THEN 1 ELSE 0 END), 0) AS closed,
		COALESCE(SUM(CASE WHEN closed_at IS NOT NULL AND cleaned_up_at IS NULL THEN 1 ELSE 0 END), 0) AS awaiting_cleanup
		FROM cases`
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return CaseStats{}, fmt.Errorf("failed to count cases: %w", err)
	}
	return stats, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
