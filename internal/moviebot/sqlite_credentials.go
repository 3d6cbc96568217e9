package moviebot

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteCredentialStore struct {
	*sqlCredentialStore
}

// NewSQLiteCredentialStore accepts sqlite:///path/to/file.db,
// sqlite://:memory: or a bare file path.
func NewSQLiteCredentialStore(dsn string) (CredentialStore, error) {
	path, err := sqlitePath(dsn)
	if err != nil {
		return nil, err
	}
	return &SQLiteCredentialStore{
		sqlCredentialStore: &sqlCredentialStore{
			driverName:  "sqlite3",
			dsn:         path,
			tableName:   credentialTableName,
			openDB:      sql.Open,
			placeholder: sqlitePlaceholder,
			configure: func(db *sql.DB) {
				// sqlite serializes writers; a single connection also keeps
				// :memory: databases from splitting across the pool.
				db.SetMaxOpenConns(1)
			},
		},
	}, nil
}

func sqlitePath(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	for _, prefix := range []string{"sqlite3://", "sqlite://"} {
		if len(dsn) >= len(prefix) && strings.EqualFold(dsn[:len(prefix)], prefix) {
			dsn = dsn[len(prefix):]
			break
		}
	}
	if dsn == "" {
		return "", fmt.Errorf("%w: sqlite path is empty", ErrInvalidInput)
	}
	return dsn, nil
}

func sqlitePlaceholder(int) string {
	return "?"
}
