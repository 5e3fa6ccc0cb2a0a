package dto

import "time"

// UserCreateDTO is used for incoming member invitation requests
type UserCreateDTO struct {
	Email string `json:"email" validate:"required,email"`
}

// UserCompleteSignInDTO is used for incoming registration completion requests
type UserCompleteSignInDTO struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UserResponseDTO is returned in API responses for members
type UserResponseDTO struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CompanyID  string    `json:"company_id"`
	IsVerified bool      `json:"is_verified"`
	FileIDs    []string  `json:"file_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
