package model

import "time"

// Admin represents a back-office account as stored in the `admin` table.
// Admins are created out-of-band (adminctl) and are only read here for login.
//
// Fields:
//
//	ID           – admin.admin_id
//	Name         – display name returned on login
//	Email        – unique login identifier
//	PasswordHash – bcrypt hash of the password
//	CreatedAt    – timestamp of creation
type Admin struct {
	ID           uint64    // admin.admin_id
	Name         string    // admin.name
	Email        string    // admin.email
	PasswordHash string    // admin.password
	CreatedAt    time.Time // admin.created_at
}

// RefreshToken models an entry in the `admin_refresh_tokens` table. Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // admin_refresh_tokens.id
	AdminID   uint64     // admin_refresh_tokens.admin_id
	TokenHash string     // admin_refresh_tokens.token_hash
	ExpiresAt time.Time  // admin_refresh_tokens.expires_at
	RevokedAt *time.Time // admin_refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // admin_refresh_tokens.created_at
}
