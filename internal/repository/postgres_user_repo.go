package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/lib/pq"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	var email sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, role, last_login_at, is_active, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &email, &user.Role,
		&user.LastLoginAt, &user.IsActive, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	user.Email = nullStringValue(email)
	if user.Role == "" {
		user.Role = model.DefaultRole
	}
	return user, nil
}

// Create はユーザーを作成する。
// ユーザー名の一意制約違反はmodel.ErrDuplicateUsernameとして区別する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, email, role, last_login_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		user.Username, user.PasswordHash, user.Email, user.Role, user.LastLoginAt, user.IsActive,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return 0, fmt.Errorf("failed to insert user %q: %w", user.Username, model.ErrDuplicateUsername)
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// TouchLastLogin は最終ログイン日時を更新する。
func (r *PostgresUserRepo) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $1 WHERE username = $2`,
		at, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePasswordHash はパスワードハッシュを置き換える。
func (r *PostgresUserRepo) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE username = $2`,
		passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

// ExistsWithRole は指定ロールのユーザーが1人以上存在するかを返す。
func (r *PostgresUserRepo) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`,
		role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
