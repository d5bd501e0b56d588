package directory

// users.go contains Store methods for user credential records.

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is one credential record in the directory.
// PasswordHash is a bcrypt hash and is never sent over the wire.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new user with a bcrypt-hashed password.
// Returns ErrUserExists if the username is already taken.
func (s *Store) CreateUser(username, password string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("directory: creating user %s", username)

	const query = `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
	`

	_, err = s.db.Exec(query, username, string(hash), time.Now().Format(time.RFC3339Nano))
	if err != nil {
		// SQLite reports primary key violations as constraint errors.
		// Distinguish the common case so the CLI can give a clear message.
		if isConstraintError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by username.
// Returns ErrUserNotFound if no such user exists.
func (s *Store) GetUser(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const query = `
		SELECT username, password_hash, created_at
		FROM users
		WHERE username = ?
	`

	var user User
	var createdAt string
	err := s.db.QueryRow(query, username).Scan(&user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &user, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const query = `
		SELECT username, password_hash, created_at
		FROM users
		ORDER BY username
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var createdAt string
		if err := rows.Scan(&user.Username, &user.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// isConstraintError reports whether err is a SQLite constraint violation.
// The modernc driver exposes these only through the error string.
func isConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
