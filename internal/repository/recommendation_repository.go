package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/glowscan/skincare-admin/internal/model"
)

// RecommendationRepo reads recommendations. Inserts only happen inside
// ScanRepo.Review so that they share the review transaction.
type RecommendationRepo struct {
	db *sql.DB
}

func NewRecommendationRepo(db *sql.DB) *RecommendationRepo { return &RecommendationRepo{db: db} }

// ListByAnalysis returns the recommendations of one scan in insertion order.
func (r *RecommendationRepo) ListByAnalysis(ctx context.Context, analysisID uint64) ([]model.Recommendation, error) {
	const q = `SELECT rec_id, analysis_id, type, model_version, title, description, link, admin_status, created_at
	           FROM recommendations WHERE analysis_id = ? ORDER BY rec_id`
	rows, err := r.db.QueryContext(ctx, q, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Recommendation{}
	for rows.Next() {
		var (
			rec         model.Recommendation
			description sql.NullString
			link        sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.AnalysisID, &rec.Type, &rec.ModelVersion, &rec.Title,
			&description, &link, &rec.AdminStatus, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Description = description.String
		rec.Link = link.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// insertRecommendationsTx inserts recs with a single multi-row INSERT inside
// tx. created_at is filled by the database. An empty slice is a no-op.
func insertRecommendationsTx(ctx context.Context, tx *sql.Tx, recs []model.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO recommendations (analysis_id, type, model_version, title, description, link, admin_status) VALUES ")
	args := make([]any, 0, len(recs)*7)
	for i, rec := range recs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, rec.AnalysisID, string(rec.Type), rec.ModelVersion, rec.Title,
			rec.Description, rec.Link, string(rec.AdminStatus))
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}
