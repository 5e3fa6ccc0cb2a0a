package dto

import "time"

// GrantDTO identifies one member allowed to see a restricted file
type GrantDTO struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// FilePermissionsUpdateDTO is used for incoming grant list replacements.
// An empty list makes the file visible to the whole company.
type FilePermissionsUpdateDTO struct {
	Permissions []GrantDTO `json:"permissions" validate:"dive"`
}

// FileResponseDTO is returned in API responses for files
type FileResponseDTO struct {
	FileID      string     `json:"file_id"`
	FileName    string     `json:"file_name"`
	Extension   string     `json:"extension"`
	ContentType string     `json:"content_type"`
	OwnerUserID string     `json:"owner_user_id"`
	CompanyID   string     `json:"company_id"`
	Permissions []GrantDTO `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FilePageResponseDTO is one page of a company's file listing
type FilePageResponseDTO struct {
	Items    []FileResponseDTO `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}
