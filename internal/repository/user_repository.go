package repository

import (
	"context"
	"database/sql"
	"strings"
)

// OtherSkinType is the bucket for users without a recorded skin type.
const OtherSkinType = "Other"

// NameCount is one bar of a dashboard chart.
type NameCount struct {
	Name  string
	Count int64
}

// UserRepo provides the read-only user aggregates shown on the dashboard.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CountAll returns the number of rows in `users`.
func (r *UserRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountBySkinType groups users by skin_type. NULL and blank values are
// merged into a single OtherSkinType bucket.
func (r *UserRepo) CountBySkinType(ctx context.Context) ([]NameCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT skin_type, COUNT(user_id) FROM users GROUP BY skin_type ORDER BY skin_type")
	if err != nil {
		return nil, err
	}
	return collectNameCounts(rows, OtherSkinType)
}

// collectNameCounts drains a (nullable name, count) result set, folding
// NULL or blank names into fallback while keeping first-seen order.
func collectNameCounts(rows *sql.Rows, fallback string) ([]NameCount, error) {
	defer rows.Close()

	out := []NameCount{}
	index := map[string]int{}
	for rows.Next() {
		var (
			name  sql.NullString
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		label := strings.TrimSpace(name.String)
		if !name.Valid || label == "" {
			label = fallback
		}
		if i, ok := index[label]; ok {
			out[i].Count += count
			continue
		}
		index[label] = len(out)
		out = append(out, NameCount{Name: label, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
