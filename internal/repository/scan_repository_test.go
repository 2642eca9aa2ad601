package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowscan/skincare-admin/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestScanRepo_CountByIssueUsesUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM skin_analysis GROUP BY detected_issue")).
		WillReturnRows(sqlmock.NewRows([]string{"detected_issue", "count"}).
			AddRow(nil, 3).
			AddRow("Acne", 5))

	got, err := NewScanRepo(db).CountByIssue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []NameCount{{Name: "Unknown", Count: 3}, {Name: "Acne", Count: 5}}, got)
}

func TestScanRepo_CountBetweenPassesUTCBounds(t *testing.T) {
	db, mock := newMock(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE analysis_date >= ? AND analysis_date < ?")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewScanRepo(db).CountBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func scanRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"analysis_id", "user_id", "scan_type", "detected_issue",
		"confidence_score", "is_reviewed", "image_path", "analysis_date"})
}

func TestScanRepo_ListAllHandlesNulls(t *testing.T) {
	db, mock := newMock(t)
	newer := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY analysis_date DESC, analysis_id DESC")).
		WillReturnRows(scanRows().
			AddRow(2, 10, "Face", "Acne", 0.91, true, "a.jpg", newer).
			AddRow(1, 11, nil, nil, nil, false, "b.jpg", older))

	got, err := NewScanRepo(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.EqualValues(t, 2, got[0].ID)
	require.NotNil(t, got[0].DetectedIssue)
	assert.Equal(t, "Acne", *got[0].DetectedIssue)
	require.NotNil(t, got[0].ConfidenceScore)
	assert.InDelta(t, 0.91, *got[0].ConfidenceScore, 1e-9)
	assert.True(t, got[0].IsReviewed)

	assert.Nil(t, got[1].ScanType)
	assert.Nil(t, got[1].DetectedIssue)
	assert.Nil(t, got[1].ConfidenceScore)
	assert.False(t, got[1].IsReviewed)
}

func TestScanRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM skin_analysis WHERE analysis_id = ?")).
		WithArgs(uint64(99)).
		WillReturnRows(scanRows())

	_, err := NewScanRepo(db).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestScanRepo_DeleteRemovesRecommendationsThenScan(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recommendations WHERE analysis_id = ?")).
		WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM skin_analysis WHERE analysis_id = ?")).
		WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := NewScanRepo(db).Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepo_DeleteMissingRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}))
	mock.ExpectRollback()

	_, err := NewScanRepo(db).Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrScanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func verifiedRecs() []model.Recommendation {
	return []model.Recommendation{
		{Type: model.RecommendationRemedy, ModelVersion: "Gemini-1.5-Flash", Title: "Aloe", Description: "Apply", AdminStatus: model.AdminStatusVerified},
		{Type: model.RecommendationProduct, ModelVersion: "Gemini-1.5-Flash", Title: "BHA", Link: "https://x", AdminStatus: model.AdminStatusVerified},
	}
}

func TestScanRepo_ReviewCommitsFlagAndRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE skin_analysis SET is_reviewed = 1")).
		WithArgs(uint64(8)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recommendations")).
		WithArgs(
			uint64(8), "Remedy", "Gemini-1.5-Flash", "Aloe", "Apply", "", "Verified",
			uint64(8), "Product", "Gemini-1.5-Flash", "BHA", "", "https://x", "Verified",
		).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	recs := verifiedRecs()
	require.NoError(t, NewScanRepo(db).Review(context.Background(), 8, recs))
	assert.EqualValues(t, 8, recs[0].AnalysisID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepo_ReviewEmptyBatchOnlyFlips(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE skin_analysis SET is_reviewed = 1")).
		WithArgs(uint64(8)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewScanRepo(db).Review(context.Background(), 8, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepo_ReviewInsertFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE skin_analysis SET is_reviewed = 1")).
		WithArgs(uint64(8)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recommendations")).
		WillReturnError(errors.New("Data too long for column 'title'"))
	mock.ExpectRollback()

	err := NewScanRepo(db).Review(context.Background(), 8, verifiedRecs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert recommendations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepo_ReviewMissingScan(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}))
	mock.ExpectRollback()

	err := NewScanRepo(db).Review(context.Background(), 8, verifiedRecs())
	assert.ErrorIs(t, err, ErrScanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
