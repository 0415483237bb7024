package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/db"
)

const uniqueViolationCode = "23505"

// PostgresStore persists credentials in PostgreSQL via the pgx stdlib
// driver.
type PostgresStore struct {
	db *db.Database
}

// NewPostgresStore wraps an opened database, ensuring the schema exists.
func NewPostgresStore(database *db.Database) (*PostgresStore, error) {
	if err := database.AutoMigrate(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: database}, nil
}

func (s *PostgresStore) Create(ctx context.Context, cred *chat.AuthUser) error {
	query := "INSERT INTO accounts (login, password_hash, salt, language) VALUES ($1, $2, $3, $4)"
	if _, err := s.db.Conn.ExecContext(ctx, query, cred.Login, cred.PasswordHash, cred.Salt, cred.Language); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return chat.ErrLoginTaken
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByLogin(ctx context.Context, login string) (*chat.AuthUser, error) {
	cred := &chat.AuthUser{Login: login}
	query := "SELECT password_hash, salt, language FROM accounts WHERE login = $1"
	err := s.db.Conn.QueryRowContext(ctx, query, login).Scan(&cred.PasswordHash, &cred.Salt, &cred.Language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chat.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("selecting account: %w", err)
	}
	return cred, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
