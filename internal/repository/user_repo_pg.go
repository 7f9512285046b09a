package repository

import (
	"context"
	"errors"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, username, email, password_hash, role, created_at`

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) LastUserID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT user_id FROM users WHERE user_id ~ '^U[0-9]+$'
		ORDER BY length(user_id) DESC, user_id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapError("last user id", err)
	}
	return id, nil
}

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (user_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		u.UserID, u.Username, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.CreatedAt)
	return mapError("insert user", err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
}

func (r *PGUserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1 OR lower(email)=lower($1) LIMIT 1`, login)
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY length(user_id), user_id`)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError("scan user", err)
		}
		users = append(users, *u)
	}
	return users, mapError("list users", rows.Err())
}

func (r *PGUserRepository) Delete(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE user_id=$1`, userID); err != nil {
		return mapError("delete user bookings", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE user_id=$1`, userID); err != nil {
		return mapError("delete user payments", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
	if err != nil {
		return mapError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "user", Key: userID}
	}
	return mapError("commit tx", tx.Commit(ctx))
}

func (r *PGUserRepository) get(ctx context.Context, sql string, key string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sql, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "user", Key: key}
	}
	if err != nil {
		return nil, mapError("get user", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
