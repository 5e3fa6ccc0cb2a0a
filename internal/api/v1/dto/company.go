package dto

import "time"

// CompanySignUpDTO is used for incoming company registration requests
type CompanySignUpDTO struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Country  string `json:"country"`
	Industry string `json:"industry"`
}

// CompanySignInDTO is used for incoming sign-in requests, company or member
type CompanySignInDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CompanyUpdateDTO is used for incoming profile and plan update requests
type CompanyUpdateDTO struct {
	Name     *string `json:"name,omitempty"`
	Country  *string `json:"country,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Plan     *string `json:"subscription_plan,omitempty" validate:"omitempty,oneof=free basic premium"`
}

// ChangePasswordDTO is used for incoming password change requests
type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ResendVerificationDTO is used for incoming verification resend requests
type ResendVerificationDTO struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponseDTO is returned after a successful sign-in
type TokenResponseDTO struct {
	Token string `json:"token"`
}

// CompanyResponseDTO is returned in API responses for companies
type CompanyResponseDTO struct {
	CompanyID              string    `json:"company_id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Country                string    `json:"country"`
	Industry               string    `json:"industry"`
	IsVerified             bool      `json:"is_verified"`
	SubscriptionPlan       string    `json:"subscription_plan"`
	SubscriptionUpdateDate time.Time `json:"subscription_update_date"`
	PremiumCharge          float64   `json:"premium_charge"`
	ExtraUserCharge        float64   `json:"extra_user_charge"`
	ExtraFileCharge        float64   `json:"extra_file_charge"`
	UserIDs                []string  `json:"user_ids"`
	FileIDs                []string  `json:"file_ids"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
