package moviebot

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// UserCredentials is the per-user row. Empty strings mean "not configured";
// an empty MetadataToken means the shared default key is used.
type UserCredentials struct {
	UserID        int64  `json:"userId"`
	MetadataToken string `json:"metadataToken"`
	StoreToken    string `json:"storeToken"`
	CollectionID  string `json:"collectionId"`
}

// CredentialField names one independently settable column.
type CredentialField int

const (
	FieldMetadataToken CredentialField = iota + 1
	FieldStoreToken
	FieldCollectionID
)

func (f CredentialField) String() string {
	switch f {
	case FieldMetadataToken:
		return "metadata_token"
	case FieldStoreToken:
		return "store_token"
	case FieldCollectionID:
		return "collection_id"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// column is the SQL column backing the field. The names match the legacy
// user_tokens table so existing databases keep working.
func (f CredentialField) column() (string, error) {
	switch f {
	case FieldMetadataToken:
		return "imdb_token", nil
	case FieldStoreToken:
		return "notion_token", nil
	case FieldCollectionID:
		return "notion_database_id", nil
	default:
		return "", fmt.Errorf("%w: unknown credential field %d", ErrInvalidInput, int(f))
	}
}

// CredentialStore persists one UserCredentials row per user. Every method is
// a single independent request; concurrent edits are last-write-wins.
type CredentialStore interface {
	// Get returns ok=false when no row exists.
	Get(ctx context.Context, userID int64) (creds UserCredentials, ok bool, err error)
	// EnsureExists inserts an empty row if none exists.
	EnsureExists(ctx context.Context, userID int64) error
	// SetField reports whether a row was updated.
	SetField(ctx context.Context, userID int64, field CredentialField, value string) (bool, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID int64) (bool, error)
	// Reset replaces the row with an empty one in a single step.
	Reset(ctx context.Context, userID int64) error
	Close() error
}

// MissingStoreSettings lists which document-store settings are absent, in
// display order.
func (c UserCredentials) MissingStoreSettings() []CredentialField {
	var missing []CredentialField
	if strings.TrimSpace(c.StoreToken) == "" {
		missing = append(missing, FieldStoreToken)
	}
	if strings.TrimSpace(c.CollectionID) == "" {
		missing = append(missing, FieldCollectionID)
	}
	return missing
}

// IsStoreReady reports whether both the store token and the target
// collection are configured.
func (c UserCredentials) IsStoreReady() bool {
	return len(c.MissingStoreSettings()) == 0
}

// ReadinessHint lists, line by line, exactly which settings are missing.
func (c UserCredentials) ReadinessHint(t *Transcripts) string {
	var b strings.Builder
	b.WriteString(t.HintTitle)
	b.WriteString("\n")
	for _, field := range c.MissingStoreSettings() {
		b.WriteString("\n")
		switch field {
		case FieldStoreToken:
			b.WriteString(t.HintSetNotionToken)
		case FieldCollectionID:
			b.WriteString(t.HintCreateNotionDB)
		}
	}
	return b.String()
}

// checkStoreReady is the gate run before any document-store write.
func checkStoreReady(t *Transcripts, c UserCredentials) error {
	if c.IsStoreReady() {
		return nil
	}
	return Feedback(c.ReadinessHint(t))
}

type InMemoryCredentialStore struct {
	mu   sync.Mutex
	rows map[int64]UserCredentials
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{rows: map[int64]UserCredentials{}}
}

func (s *InMemoryCredentialStore) Get(ctx context.Context, userID int64) (UserCredentials, bool, error) {
	if err := ctx.Err(); err != nil {
		return UserCredentials{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	return row, ok, nil
}

func (s *InMemoryCredentialStore) EnsureExists(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[userID]; !ok {
		s.rows[userID] = UserCredentials{UserID: userID}
	}
	return nil
}

func (s *InMemoryCredentialStore) SetField(ctx context.Context, userID int64, field CredentialField, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := field.column(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return false, nil
	}
	switch field {
	case FieldMetadataToken:
		row.MetadataToken = value
	case FieldStoreToken:
		row.StoreToken = value
	case FieldCollectionID:
		row.CollectionID = value
	}
	s.rows[userID] = row
	return true, nil
}

func (s *InMemoryCredentialStore) Delete(ctx context.Context, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[userID]
	delete(s.rows, userID)
	return ok, nil
}

func (s *InMemoryCredentialStore) Reset(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[userID] = UserCredentials{UserID: userID}
	return nil
}

func (s *InMemoryCredentialStore) Close() error {
	return nil
}
