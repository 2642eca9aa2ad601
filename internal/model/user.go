package model

import "time"

// User represents an end user of the mobile application as stored in the
// `users` table. This service never writes users; they are only counted and
// grouped for the dashboard.
type User struct {
	ID        uint64     // users.user_id
	Name      string     // users.name
	Email     string     // users.email
	BirthDate *time.Time // users.birth_date (nullable)
	Gender    *string    // users.gender (nullable)
	SkinType  *string    // users.skin_type (nullable), e.g. Oily, Dry
	CreatedAt time.Time  // users.created_at
}
