package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is an account that can log in. Non-admin users only see requests for
// the obras assigned to them.
type User struct {
	ID           int64
	Nome         string
	Email        string
	PasswordHash string
	Admin        bool
	Obras        []int64
	CreatedAt    time.Time
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *User) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (nome, email, password_hash, admin)
		VALUES (?, ?, ?, ?)`,
		u.Nome, strings.ToLower(u.Email), u.PasswordHash, u.Admin)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if err := r.SetUserObras(ctx, id, u.Obras); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "email = ?", strings.ToLower(email))
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var created string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nome, email, password_hash, admin, created_at FROM users WHERE "+where, arg).
		Scan(&u.ID, &u.Nome, &u.Email, &u.PasswordHash, &u.Admin, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.DateTime, created)

	if u.Obras, err = r.GetUserObras(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nome, email, password_hash, admin, created_at FROM users ORDER BY nome ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var created string
		if err := rows.Scan(&u.ID, &u.Nome, &u.Email, &u.PasswordHash, &u.Admin, &created); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt, _ = time.Parse(time.DateTime, created)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range users {
		if users[i].Obras, err = r.GetUserObras(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UpdateUser updates profile fields and obra assignments. An empty
// PasswordHash keeps the current one.
func (r *SQLiteRepository) UpdateUser(ctx context.Context, u *User) error {
	var res sql.Result
	var err error
	if u.PasswordHash != "" {
		res, err = r.db.ExecContext(ctx, `
			UPDATE users SET nome = ?, email = ?, password_hash = ?, admin = ? WHERE id = ?`,
			u.Nome, strings.ToLower(u.Email), u.PasswordHash, u.Admin, u.ID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE users SET nome = ?, email = ?, admin = ? WHERE id = ?`,
			u.Nome, strings.ToLower(u.Email), u.Admin, u.ID)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return r.SetUserObras(ctx, u.ID, u.Obras)
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserObras replaces the user's obra assignments.
func (r *SQLiteRepository) SetUserObras(ctx context.Context, userID int64, obras []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_obras WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear user obras: %w", err)
	}
	for _, obraID := range obras {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_obras (user_id, obra_id) VALUES (?, ?)", userID, obraID); err != nil {
			return fmt.Errorf("assign obra %d: %w", obraID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserObras(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT obra_id FROM user_obras WHERE user_id = ? ORDER BY obra_id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("get user obras: %w", err)
	}
	defer rows.Close()

	var obras []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan obra id: %w", err)
		}
		obras = append(obras, id)
	}
	return obras, rows.Err()
}
