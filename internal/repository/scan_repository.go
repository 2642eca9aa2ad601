// Package repository contains data access logic separated from HTTP handlers.
// This file covers the skin_analysis table: listing, counting, the
// cascading delete and the review transaction that stores recommendations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glowscan/skincare-admin/internal/model"
)

// UnknownIssue labels scans without a detected issue in the issue chart.
const UnknownIssue = "Unknown"

const scanColumns = `analysis_id, user_id, scan_type, detected_issue, confidence_score,
	is_reviewed, image_path, analysis_date`

// ScanRepo encapsulates all queries against skin_analysis.
type ScanRepo struct {
	db *sql.DB
}

// NewScanRepo constructs a ScanRepo with the provided DB handle.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkinAnalysis(row rowScanner) (model.SkinAnalysis, error) {
	var (
		s          model.SkinAnalysis
		scanType   sql.NullString
		issue      sql.NullString
		confidence sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.UserID, &scanType, &issue, &confidence,
		&s.IsReviewed, &s.ImagePath, &s.AnalysisDate); err != nil {
		return model.SkinAnalysis{}, err
	}
	if scanType.Valid {
		s.ScanType = &scanType.String
	}
	if issue.Valid {
		s.DetectedIssue = &issue.String
	}
	if confidence.Valid {
		s.ConfidenceScore = &confidence.Float64
	}
	return s, nil
}

// CountAll returns the total number of scans.
func (r *ScanRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skin_analysis").Scan(&n)
	return n, err
}

// CountPending returns the number of scans not yet reviewed.
func (r *ScanRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skin_analysis WHERE is_reviewed = 0").Scan(&n)
	return n, err
}

// CountBetween counts scans with from <= analysis_date < to. Bounds are
// converted to UTC to match the stored timestamps.
func (r *ScanRepo) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM skin_analysis WHERE analysis_date >= ? AND analysis_date < ?",
		from.UTC(), to.UTC()).Scan(&n)
	return n, err
}

// CountByIssue groups scans by detected_issue; NULL or blank issues are
// reported as UnknownIssue.
func (r *ScanRepo) CountByIssue(ctx context.Context) ([]NameCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT detected_issue, COUNT(analysis_id) FROM skin_analysis GROUP BY detected_issue ORDER BY detected_issue")
	if err != nil {
		return nil, err
	}
	return collectNameCounts(rows, UnknownIssue)
}

// ListAll returns every scan, most recent first.
func (r *ScanRepo) ListAll(ctx context.Context) ([]model.SkinAnalysis, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+scanColumns+" FROM skin_analysis ORDER BY analysis_date DESC, analysis_id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SkinAnalysis{}
	for rows.Next() {
		s, err := scanSkinAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one scan or ErrScanNotFound.
func (r *ScanRepo) GetByID(ctx context.Context, id uint64) (model.SkinAnalysis, error) {
	s, err := scanSkinAnalysis(r.db.QueryRowContext(ctx,
		"SELECT "+scanColumns+" FROM skin_analysis WHERE analysis_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SkinAnalysis{}, ErrScanNotFound
	}
	return s, err
}

// lockScanTx takes a row lock on the scan so concurrent reviews and deletes
// of the same scan serialize.
func lockScanTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx,
		"SELECT analysis_id FROM skin_analysis WHERE analysis_id = ? FOR UPDATE", id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScanNotFound
	}
	return err
}

// Delete removes a scan and all recommendations that reference it in one
// transaction and returns how many recommendations were removed. The
// explicit recommendation delete keeps databases created before the
// ON DELETE CASCADE constraint consistent.
func (r *ScanRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockScanTx(ctx, tx, id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM recommendations WHERE analysis_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete recommendations: %w", err)
	}
	removed, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, "DELETE FROM skin_analysis WHERE analysis_id = ?", id); err != nil {
		return 0, fmt.Errorf("delete scan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return removed, nil
}

// Review marks the scan reviewed and inserts recs in a single transaction.
// Either the flag flip and every recommendation persist, or nothing does.
// AnalysisID on each rec is overwritten with id.
func (r *ScanRepo) Review(ctx context.Context, id uint64, recs []model.Recommendation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockScanTx(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE skin_analysis SET is_reviewed = 1 WHERE analysis_id = ?", id); err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	for i := range recs {
		recs[i].AnalysisID = id
	}
	if err := insertRecommendationsTx(ctx, tx, recs); err != nil {
		return fmt.Errorf("insert recommendations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
