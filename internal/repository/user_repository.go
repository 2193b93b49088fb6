package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JakubGluszek/ludicrum/internal/model"
)

// UserRepo maintains the local mirror of public profiles owned by the
// external identity provider. Rows are written only through Upsert,
// which refreshes the name and avatar on every authenticated write so
// joins against events and reviews stay current.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Upsert inserts or refreshes the profile row for the given user.
func (r *UserRepo) Upsert(ctx context.Context, u model.User) error {
	const q = `INSERT INTO users (id, name, image) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), image = VALUES(image)`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Image)
	return err
}

// GetByID fetches a profile by id. ErrNotFound is returned when the
// identity has never authenticated against this service.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, name, image FROM users WHERE id = ?`
	var u model.User
	var name, image sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &name, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if name.Valid {
		v := name.String
		u.Name = &v
	}
	if image.Valid {
		v := image.String
		u.Image = &v
	}
	return &u, nil
}
