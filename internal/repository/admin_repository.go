package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/glowscan/skincare-admin/internal/model"
)

// AdminRepo reads and maintains rows of the `admin` table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts an admin with an already hashed password and returns its ID.
func (r *AdminRepo) Create(ctx context.Context, name, email, passwordHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin (name, email, password) VALUES (?,?,?)",
		strings.TrimSpace(name), NormalizeEmail(email), passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an admin by normalized email. ErrAdminNotFound is
// returned when nothing matches.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id,name,email,password,created_at FROM admin WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrAdminNotFound
	}
	return a, err
}

// GetByID fetches an admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id,name,email,password,created_at FROM admin WHERE admin_id=? LIMIT 1",
		id).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrAdminNotFound
	}
	return a, err
}

// ListAll returns every admin ordered by id. Used by adminctl.
func (r *AdminRepo) ListAll(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT admin_id,name,email,password,created_at FROM admin ORDER BY admin_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdatePasswordHash replaces the stored password of one admin.
func (r *AdminRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE admin SET password=? WHERE admin_id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
