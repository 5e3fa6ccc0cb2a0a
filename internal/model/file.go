package model

import "time"

// Grant names one member allowed to view a file beyond its owner.
type Grant struct {
	GranteeUserID string `json:"grantee_user_id"`
	GranteeEmail  string `json:"grantee_email"`
}

// File is an uploaded file's metadata. The bytes live in object storage
// under StorageKey.
type File struct {
	ID             string `db:"id" json:"id"`
	StorageKey     string `db:"storage_key" json:"-"`
	FileName       string `db:"file_name" json:"file_name"`
	Extension      string `db:"extension" json:"extension"`
	ContentType    string `db:"content_type" json:"content_type"`
	OwnerUserID    string `db:"owner_user_id" json:"owner_user_id"`
	OwnerCompanyID string `db:"owner_company_id" json:"owner_company_id"`

	// An empty grant list means the file is visible to the whole company;
	// a non-empty list restricts visibility to the owner plus the grantees.
	Permissions []Grant `db:"permissions" json:"permissions"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the member with userID may see the file.
func (f *File) VisibleTo(userID string) bool {
	if len(f.Permissions) == 0 {
		return true
	}
	if f.OwnerUserID == userID {
		return true
	}
	for _, g := range f.Permissions {
		if g.GranteeUserID == userID {
			return true
		}
	}
	return false
}
