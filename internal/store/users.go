package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qwerty1432/Memory-Research/internal/condition"
)

// ErrUsernameTaken is returned by CreateUser when the username exists.
var ErrUsernameTaken = errors.New("username already registered")

// User is a study participant.
type User struct {
	ID        string
	Username  string
	Condition condition.Condition
	CreatedAt int64
}

// CreateUser inserts a participant with an already-validated condition.
func (db *DB) CreateUser(username string, c condition.Condition) (*User, error) {
	u := &User{
		ID:        uuid.NewString(),
		Username:  username,
		Condition: c,
		CreatedAt: time.Now().UnixMilli(),
	}
	_, err := db.Exec(`
		INSERT INTO users (user_id, username, condition, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, string(u.Condition), u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("create user %q: %w", username, ErrUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by id, or nil if not found.
func (db *DB) GetUser(userID string) (*User, error) {
	return getUser(db, userID)
}

// GetUser returns a user by id inside the transaction, or nil if not found.
func (tx *Tx) GetUser(userID string) (*User, error) {
	return getUser(tx, userID)
}

func getUser(q querier, userID string) (*User, error) {
	var u User
	var c string
	err := q.QueryRow(`
		SELECT user_id, username, condition, created_at FROM users WHERE user_id = ?
	`, userID).Scan(&u.ID, &u.Username, &c, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Condition = condition.Condition(c)
	return &u, nil
}

// GetUserByUsername returns a user by username, or nil if not found.
func (db *DB) GetUserByUsername(username string) (*User, error) {
	var u User
	var c string
	err := db.QueryRow(`
		SELECT user_id, username, condition, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &c, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	u.Condition = condition.Condition(c)
	return &u, nil
}

// SetCondition overwrites a user's condition. Returns false if the user does not exist.
func (db *DB) SetCondition(userID string, c condition.Condition) (bool, error) {
	result, err := db.Exec(`UPDATE users SET condition = ? WHERE user_id = ?`, string(c), userID)
	if err != nil {
		return false, fmt.Errorf("set condition: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteUser removes a user; sessions, messages and memories cascade.
func (db *DB) DeleteUser(userID string) (bool, error) {
	result, err := db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
