package model

import "time"

// User is a member belonging to exactly one company. The password hash is
// set only after email verification and sign-in completion; until then the
// member cannot authenticate.
type User struct {
	ID           string  `db:"id" json:"id"`
	Email        string  `db:"email" json:"email"`
	PasswordHash *string `db:"password_hash" json:"-"`
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	CompanyID    string  `db:"company_id" json:"company_id"`

	IsVerified            bool       `db:"is_verified" json:"is_verified"`
	VerificationToken     *string    `db:"verification_token" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`

	// File IDs this member uploaded (back-reference).
	FileIDs []string `db:"file_ids" json:"file_ids"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
