package moviebot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	credentialTableName         = "user_tokens"
	credentialOperationTimeout  = 5 * time.Second
	credentialSelectColumns     = "user_id, imdb_token, notion_token, notion_database_id"
	credentialDefaultFieldValue = ""
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// sqlCredentialStore holds the SQL shared by the postgres and sqlite
// backends. Only placeholder syntax and connection setup differ.
type sqlCredentialStore struct {
	driverName  string
	dsn         string
	tableName   string
	openDB      sqlOpenFunc
	placeholder func(n int) string
	configure   func(db *sql.DB)

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func (s *sqlCredentialStore) ensureReady() error {
	if s == nil {
		return ErrInvalidInput
	}
	s.initOnce.Do(func() {
		db, err := s.openDB(s.driverName, s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		if s.configure != nil {
			s.configure(db)
		}
		ctx, cancel := context.WithTimeout(context.Background(), credentialOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				user_id BIGINT PRIMARY KEY,
				imdb_token TEXT NOT NULL DEFAULT '',
				notion_token TEXT NOT NULL DEFAULT '',
				notion_database_id TEXT NOT NULL DEFAULT ''
			)`, quoteIdentifier(s.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			s.initErr = err
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *sqlCredentialStore) Get(ctx context.Context, userID int64) (UserCredentials, bool, error) {
	if err := s.ensureReady(); err != nil {
		return UserCredentials{}, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, credentialOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = %s",
		credentialSelectColumns, quoteIdentifier(s.tableName), s.placeholder(1))
	var creds UserCredentials
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&creds.UserID,
		&creds.MetadataToken,
		&creds.StoreToken,
		&creds.CollectionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return UserCredentials{}, false, nil
	}
	if err != nil {
		return UserCredentials{}, false, err
	}
	return creds, true, nil
}

func (s *sqlCredentialStore) EnsureExists(ctx context.Context, userID int64) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, credentialOperationTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.insertDefaultQuery(), s.insertDefaultArgs(userID)...)
	return err
}

func (s *sqlCredentialStore) SetField(ctx context.Context, userID int64, field CredentialField, value string) (bool, error) {
	column, err := field.column()
	if err != nil {
		return false, err
	}
	if err := s.ensureReady(); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, credentialOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE user_id = %s",
		quoteIdentifier(s.tableName), quoteIdentifier(column), s.placeholder(1), s.placeholder(2))
	result, err := s.db.ExecContext(ctx, query, value, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *sqlCredentialStore) Delete(ctx context.Context, userID int64) (bool, error) {
	if err := s.ensureReady(); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, credentialOperationTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, s.deleteQuery(), userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *sqlCredentialStore) Reset(ctx context.Context, userID int64) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, credentialOperationTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, s.deleteQuery(), userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.insertDefaultQuery(), s.insertDefaultArgs(userID)...); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *sqlCredentialStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlCredentialStore) insertDefaultQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %s (user_id, imdb_token, notion_token, notion_database_id)
		VALUES (%s, %s, %s, %s)
		ON CONFLICT (user_id) DO NOTHING`,
		quoteIdentifier(s.tableName),
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
}

func (s *sqlCredentialStore) insertDefaultArgs(userID int64) []any {
	return []any{userID, credentialDefaultFieldValue, credentialDefaultFieldValue, credentialDefaultFieldValue}
}

func (s *sqlCredentialStore) deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE user_id = %s", quoteIdentifier(s.tableName), s.placeholder(1))
}

func quoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "\"\""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
