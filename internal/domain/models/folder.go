package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Folder is one node of the account's namespace. Path is canonical and
// unique per account; ParentPath is Path with its last segment removed
// ("/" for top-level folders).
//
// TotalFiles and TotalSize aggregate the folder's direct, non-deleted files
// only - subfolder contents are not counted. Every mutation that changes
// membership or size maintains them incrementally.
type Folder struct {
	ID         string    `json:"id" db:"id"`
	AccountID  string    `json:"accountId" db:"account_id"`
	Name       string    `json:"name" db:"name"`
	Path       string    `json:"path" db:"path"`
	ParentPath string    `json:"parentPath" db:"parent_path"`
	TotalFiles int       `json:"totalFiles" db:"total_files"`
	TotalSize  int64     `json:"totalSize" db:"total_size"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateFolderRequest creates a folder under ParentPath.
type CreateFolderRequest struct {
	AccountID  string `json:"accountId"`
	ParentPath string `json:"parentPath"`
	Name       string `json:"name"`
}

// Validate checks the request fields. Folder names are single path
// segments, so a slash in the name is rejected outright.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountID, validation.Required),
		validation.Field(&r.ParentPath, validation.Required),
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, 255),
			validation.By(noSlashes),
		),
	)
}

// RenameFolderRequest renames the folder with the given id.
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// Validate checks the request fields.
func (r RenameFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, 255),
			validation.By(noSlashes),
		),
	)
}

func noSlashes(value interface{}) error {
	s, _ := value.(string)
	for _, c := range s {
		if c == '/' || c == '\\' {
			return validation.NewError("validation_no_slashes", "must not contain path separators")
		}
	}
	return nil
}
