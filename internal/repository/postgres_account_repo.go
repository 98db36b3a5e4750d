package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mindjournal/internal/model"
)

// ログインまわりのusers・identities・sessionsテーブルを扱うリポジトリ。

type PostgresUserRepo struct {
	db *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

var _ UserRepository = (*PostgresUserRepo)(nil)

// FindByID は退会済みなど該当がなければnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := findOne(ctx, r.db, func(s rowScanner) (*model.User, error) {
		u := &model.User{}
		return u, s.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	}, `SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

// CreateWithIdentity は初回ログインのユーザーとidentityを1トランザクションで作る。
func (r *PostgresUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
			identity.ID, identity.UserID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert identity: %w", err)
		}
		return nil
	})
}

// DeleteByID はユーザーを消す。所有データは外部キーのON DELETE CASCADEで消える。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	deleted, err := deleteWhere(ctx, r.db, `DELETE FROM users WHERE id = $1`, id)
	switch {
	case err != nil:
		return fmt.Errorf("failed to delete user: %w", err)
	case !deleted:
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

type PostgresIdentityRepo struct {
	db *sql.DB
}

func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

var _ IdentityRepository = (*PostgresIdentityRepo)(nil)

// FindByProviderAndProviderUserID は未登録ならnilを返す。
func (r *PostgresIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	i, err := findOne(ctx, r.db, func(s rowScanner) (*model.Identity, error) {
		i := &model.Identity{}
		return i, s.Scan(&i.ID, &i.UserID, &i.Provider, &i.ProviderUserID, &i.CreatedAt)
	}, `SELECT id, user_id, provider, provider_user_id, created_at
		FROM identities WHERE provider = $1 AND provider_user_id = $2`, provider, providerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	return i, nil
}

// PostgresSessionRepo はログインセッションを保存する。期限切れの行はworkerが掃除する。
type PostgresSessionRepo struct {
	db *sql.DB
}

func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

var _ SessionRepository = (*PostgresSessionRepo)(nil)

// Create はdataカラムを既定値のまま挿入する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は期限内のセッションだけを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	s, err := findOne(ctx, r.db, func(row rowScanner) (*model.Session, error) {
		s := &model.Session{}
		return s, row.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	}, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = $1 AND expires_at > now()`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := deleteWhere(ctx, r.db, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は退会時に全端末のセッションを失効させる。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := deleteWhere(ctx, r.db, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}
