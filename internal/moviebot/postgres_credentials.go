package moviebot

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

type PostgresCredentialStore struct {
	*sqlCredentialStore
}

func NewPostgresCredentialStore(dsn string) (CredentialStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	return &PostgresCredentialStore{
		sqlCredentialStore: &sqlCredentialStore{
			driverName:  "postgres",
			dsn:         dsn,
			tableName:   credentialTableName,
			openDB:      sql.Open,
			placeholder: postgresPlaceholder,
			configure: func(db *sql.DB) {
				db.SetMaxOpenConns(5)
			},
		},
	}, nil
}

func postgresPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
