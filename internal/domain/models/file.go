package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// File is the metadata row for one stored file. The bytes themselves live in
// the external message transport; ChatID/MessageID are an opaque
// back-reference into it and are never interpreted here.
type File struct {
	ID           string     `json:"id" db:"id"`
	AccountID    string     `json:"accountId" db:"account_id"`
	FolderPath   string     `json:"folderPath" db:"folder_path"`
	Filename     string     `json:"filename" db:"filename"`
	Filetype     string     `json:"filetype" db:"filetype"`
	Size         int64      `json:"size" db:"size"`
	ChatID       string     `json:"chatId" db:"chat_id"`
	MessageID    string     `json:"messageId" db:"message_id"`
	IsBookmarked bool       `json:"isBookmarked" db:"is_bookmarked"`
	IsDeleted    bool       `json:"isDeleted" db:"is_deleted"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateFileRequest carries the metadata registered after an upload has
// completed against the byte transport.
type CreateFileRequest struct {
	AccountID  string `json:"accountId"`
	FolderPath string `json:"folderPath"`
	Filename   string `json:"filename"`
	Filetype   string `json:"filetype"`
	Size       int64  `json:"size"`
	ChatID     string `json:"chatId"`
	MessageID  string `json:"messageId"`
}

// Validate checks the request fields.
func (r CreateFileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountID, validation.Required),
		validation.Field(&r.FolderPath, validation.Required),
		validation.Field(&r.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Size, validation.Min(0)),
	)
}

// AccountStats summarizes an account's usage across every file row,
// deleted rows included (trash still occupies transport storage).
type AccountStats struct {
	TotalFiles int   `json:"totalFiles"`
	TotalSize  int64 `json:"totalSize"`
}
