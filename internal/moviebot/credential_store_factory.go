package moviebot

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

type CredentialStoreFactory func(dsn string) (CredentialStore, error)

var credentialStoreRegistry = struct {
	mu        sync.RWMutex
	factories map[string]CredentialStoreFactory
}{
	factories: map[string]CredentialStoreFactory{},
}

// RegisterCredentialStoreFactory overrides or adds a backend for scheme.
func RegisterCredentialStoreFactory(scheme string, factory CredentialStoreFactory) {
	scheme = normalizeBackendScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	credentialStoreRegistry.mu.Lock()
	defer credentialStoreRegistry.mu.Unlock()
	credentialStoreRegistry.factories[scheme] = factory
}

func lookupCredentialStoreFactory(scheme string) (CredentialStoreFactory, bool) {
	scheme = normalizeBackendScheme(scheme)
	credentialStoreRegistry.mu.RLock()
	defer credentialStoreRegistry.mu.RUnlock()
	factory, ok := credentialStoreRegistry.factories[scheme]
	return factory, ok
}

func normalizeBackendScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}

// BuildCredentialStoreFromDSN picks a backend by URL scheme.
func BuildCredentialStoreFromDSN(dsn string) (CredentialStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: credential store dsn is empty", ErrInvalidInput)
	}
	scheme, err := dsnScheme(dsn)
	if err != nil {
		return nil, err
	}
	if factory, ok := lookupCredentialStoreFactory(scheme); ok {
		return factory(dsn)
	}
	switch scheme {
	case "memory", "mem", "inmem":
		return NewInMemoryCredentialStore(), nil
	case "postgres", "postgresql":
		return NewPostgresCredentialStore(dsn)
	case "sqlite", "sqlite3":
		return NewSQLiteCredentialStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported credential store scheme: %s", scheme)
	}
}

// dsnScheme reads the scheme without a full URL parse, since sqlite DSNs
// such as sqlite://:memory: are not valid URLs.
func dsnScheme(dsn string) (string, error) {
	if idx := strings.Index(dsn, "://"); idx > 0 {
		return normalizeBackendScheme(dsn[:idx]), nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	return normalizeBackendScheme(parsed.Scheme), nil
}
