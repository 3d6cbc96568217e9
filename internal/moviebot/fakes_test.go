package moviebot

import (
	"context"
	"sync"

	"golang.org/x/text/language"
)

type recordingMessenger struct {
	mu       sync.Mutex
	messages []OutboundMessage
	err      error
}

func (m *recordingMessenger) Send(ctx context.Context, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMessenger) sent() []OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

type fakeProvider struct {
	mu          sync.Mutex
	results     []SearchResult
	searchErr   error
	item        NormalizedItem
	detailErr   error
	usage       Usage
	usageErr    error
	searchCalls int
	lastToken   string
	lastQuery   string
	lastID      string
	lastLocale  language.Tag
}

// Search ignores limit so the engine's own cap is exercised.
func (p *fakeProvider) Search(ctx context.Context, token, query string, limit int) ([]SearchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchCalls++
	p.lastToken = token
	p.lastQuery = query
	return p.results, p.searchErr
}

func (p *fakeProvider) Detail(ctx context.Context, token, id string, locale language.Tag) (NormalizedItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastToken = token
	p.lastID = id
	p.lastLocale = locale
	return p.item, p.detailErr
}

func (p *fakeProvider) Usage(ctx context.Context, token string) (Usage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastToken = token
	return p.usage, p.usageErr
}

type insertedRecord struct {
	token        string
	collectionID string
	item         NormalizedItem
}

type fakeDocumentStore struct {
	mu           sync.Mutex
	collectionID string
	createErr    error
	insertErr    error
	created      []string
	inserted     []insertedRecord
}

func (s *fakeDocumentStore) CreateCollection(ctx context.Context, token, parentPageID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, parentPageID)
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.collectionID, nil
}

func (s *fakeDocumentStore) InsertRecord(ctx context.Context, token, collectionID string, item NormalizedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, insertedRecord{token: token, collectionID: collectionID, item: item})
	return s.insertErr
}

// failingCredentialStore fails every call with err.
type failingCredentialStore struct {
	err error
}

func (s failingCredentialStore) Get(ctx context.Context, userID int64) (UserCredentials, bool, error) {
	return UserCredentials{}, false, s.err
}

func (s failingCredentialStore) EnsureExists(ctx context.Context, userID int64) error {
	return s.err
}

func (s failingCredentialStore) SetField(ctx context.Context, userID int64, field CredentialField, value string) (bool, error) {
	return false, s.err
}

func (s failingCredentialStore) Delete(ctx context.Context, userID int64) (bool, error) {
	return false, s.err
}

func (s failingCredentialStore) Reset(ctx context.Context, userID int64) error {
	return s.err
}

func (s failingCredentialStore) Close() error {
	return nil
}
