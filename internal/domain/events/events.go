// Package events defines the closed set of mutation notifications the store
// emits and the sink interface it publishes them through.
//
// Payload is a tagged union keyed on the event type: every variant has one
// concrete payload shape, so the client reconciler gets an exhaustive switch
// instead of an untyped blob.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"televault/internal/domain/models"
)

// Type enumerates every mutation notification.
type Type string

const (
	FileAdded           Type = "FILE_ADDED"
	FileRemoved         Type = "FILE_REMOVED"
	FileUpdated         Type = "FILE_UPDATED"
	FolderCreated       Type = "FOLDER_CREATED"
	FolderDeleted       Type = "FOLDER_DELETED"
	FolderRenamed       Type = "FOLDER_RENAMED"
	BatchFileDeleted    Type = "BATCH_FILE_DELETED"
	BatchFileMoved      Type = "BATCH_FILE_MOVED"
	BatchFileBookmarked Type = "BATCH_FILE_BOOKMARKED"
)

// Event is the wire envelope pushed to every live connection of an account.
// Timestamp is unix milliseconds at emission time.
type Event struct {
	Type      Type    `json:"type"`
	AccountID string  `json:"accountId"`
	Payload   Payload `json:"payload"`
	Timestamp int64   `json:"timestamp"`
}

// New stamps an event with the current time.
func New(t Type, accountID string, payload Payload) Event {
	return Event{
		Type:      t,
		AccountID: accountID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Payload is the per-type notification body.
type Payload interface {
	isPayload()
}

// FilePayload carries the full updated row. Used by FILE_ADDED and
// FILE_UPDATED.
type FilePayload struct {
	models.File
}

// FileRemovedPayload carries just the removed id. Used by FILE_REMOVED.
type FileRemovedPayload struct {
	ID string `json:"id"`
}

// FileIDsPayload carries the affected id list. Used by BATCH_FILE_DELETED.
type FileIDsPayload struct {
	FileIDs []string `json:"fileIds"`
}

// FilesPayload carries the full updated rows. Used by BATCH_FILE_MOVED and
// BATCH_FILE_BOOKMARKED.
type FilesPayload struct {
	Files []models.File `json:"files"`
}

// FolderPayload carries the full folder row. Used by FOLDER_CREATED and
// FOLDER_RENAMED.
type FolderPayload struct {
	models.Folder
}

// FolderRemovedPayload identifies the deleted folder. Used by FOLDER_DELETED.
type FolderRemovedPayload struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// UnknownPayload preserves the raw body of an unrecognized event type.
// Reconcilers treat it as a signal to refetch.
type UnknownPayload struct {
	Raw json.RawMessage
}

func (FilePayload) isPayload()          {}
func (FileRemovedPayload) isPayload()   {}
func (FileIDsPayload) isPayload()       {}
func (FilesPayload) isPayload()         {}
func (FolderPayload) isPayload()        {}
func (FolderRemovedPayload) isPayload() {}
func (UnknownPayload) isPayload()       {}

// UnmarshalJSON decodes the payload into its concrete shape based on the
// event type. Unrecognized types decode into UnknownPayload rather than
// failing, so a newer server never breaks an older client.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      Type            `json:"type"`
		AccountID string          `json:"accountId"`
		Payload   json.RawMessage `json:"payload"`
		Timestamp int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	e.Type = raw.Type
	e.AccountID = raw.AccountID
	e.Timestamp = raw.Timestamp

	switch raw.Type {
	case FileAdded, FileUpdated:
		var p FilePayload
		if err := json.Unmarshal(raw.Payload, &p.File); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	case FileRemoved:
		var p FileRemovedPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	case BatchFileDeleted:
		var p FileIDsPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	case BatchFileMoved, BatchFileBookmarked:
		var p FilesPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	case FolderCreated, FolderRenamed:
		var p FolderPayload
		if err := json.Unmarshal(raw.Payload, &p.Folder); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	case FolderDeleted:
		var p FolderRemovedPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", raw.Type, err)
		}
		e.Payload = p
	default:
		e.Payload = UnknownPayload{Raw: raw.Payload}
	}

	return nil
}

// Sink receives committed-mutation events. The store publishes through this
// interface; the connection hub is the production implementation. Publish
// failures are advisory - callers log and move on, the committed data change
// is never rolled back.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
