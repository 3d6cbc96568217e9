package moviebot

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// SearchResult is ephemeral; only ID travels back through the callback.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NormalizedItem is the provider-agnostic movie record. Nil pointers and
// empty strings or lists mean the provider omitted the field.
type NormalizedItem struct {
	Title          string
	Category       string
	Year           *int
	ImageURL       string
	ReleaseDate    *time.Time
	RuntimeMinutes *int
	Plot           string
	Directors      []string
	Stars          []string
	Genres         []string
	Countries      []string
	Languages      []string
	ContentRating  string
	Rating         *float64
	Link           string
}

// MetadataProvider searches a movie catalog and fetches item details.
// An empty token selects the provider's shared default key.
type MetadataProvider interface {
	Search(ctx context.Context, token, query string, limit int) ([]SearchResult, error)
	Detail(ctx context.Context, token, id string, locale language.Tag) (NormalizedItem, error)
}

// Usage is a provider's request quota.
type Usage struct {
	Count   uint64
	Maximum uint64
}

// UsageReporter is implemented by providers that expose their quota.
type UsageReporter interface {
	Usage(ctx context.Context, token string) (Usage, error)
}

// DocumentStore creates movie-list collections and inserts records.
type DocumentStore interface {
	CreateCollection(ctx context.Context, token, parentPageID string) (string, error)
	InsertRecord(ctx context.Context, token, collectionID string, item NormalizedItem) error
}

// CallbackButton is an inline button whose press comes back as a
// SelectResult event carrying Data.
type CallbackButton struct {
	Text string
	Data string
}

type OutboundMessage struct {
	ChatID int64
	Text   string
	HTML   bool
	Button *CallbackButton
}

// Messenger delivers text to a chat.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// QuotaSummary reports the metadata quota for a user's key, or for the
// shared key when the user has none configured.
func QuotaSummary(ctx context.Context, creds CredentialStore, provider MetadataProvider, locale language.Tag, userID int64) (string, error) {
	reporter, ok := provider.(UsageReporter)
	if !ok {
		return "", fmt.Errorf("%w: provider does not report usage", ErrNotImplemented)
	}
	row, found, err := creds.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	token := ""
	if found {
		token = row.MetadataToken
	}
	usage, err := reporter.Usage(ctx, token)
	if err != nil {
		return "", err
	}
	return TranscriptsFor(locale).Usage(usage), nil
}
