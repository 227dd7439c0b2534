// Package auth はパスワード認証、ユーザー登録、セッショントークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/powerfleet/internal/metrics"
	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/hitoshi/powerfleet/internal/repository"
)

// DefaultAdminUsername は初期管理者のユーザー名。
const DefaultAdminUsername = "admin"

// TokenIssuer はセッショントークンを発行するインターフェース。
type TokenIssuer interface {
	Issue(username, role string) (string, time.Time, error)
}

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string // 空の場合はmodel.DefaultRole
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   TokenIssuer
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens TokenIssuer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate はユーザー名とパスワードを照合する。
// 入力が空白のみ、ユーザーが存在しない、無効化されている、パスワード不一致の場合は(nil, nil)を返す。
// 照合に成功した場合は最終ログイン日時を更新してユーザーを返す。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		s.metrics.RecordLogin(false)
		return nil, nil
	}

	// 1. ユーザー取得
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.IsActive {
		s.metrics.RecordLogin(false)
		return nil, nil
	}

	// 2. パスワード照合
	ok, needsRehash := s.hasher.Verify(user.PasswordHash, password)
	if !ok {
		s.metrics.RecordLogin(false)
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, nil
	}

	// 3. 旧形式ハッシュはbcryptに置き換える。失敗してもログインは継続する
	if needsRehash {
		s.rehash(ctx, user, password)
	}

	// 4. 最終ログイン日時を更新
	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.Username, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLoginAt = now

	s.metrics.RecordLogin(true)
	s.logger.Info("user logged in",
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)
	return user, nil
}

// Register はユーザーを登録する。
// ユーザー名が重複する場合はDUPLICATE_USERNAMEのAPIErrorを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, model.NewValidationError("username is required")
	}
	// パスワードは入力どおりにハッシュ化し、空白のみの場合だけ拒否する
	if strings.TrimSpace(in.Password) == "" {
		return nil, model.NewValidationError("password is required")
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.DefaultRole
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(in.Email),
		Role:         role,
		LastLoginAt:  now,
		IsActive:     true,
		CreatedAt:    now,
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return nil, model.NewDuplicateUsernameError(username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id

	s.logger.Info("user registered",
		slog.String("username", username),
		slog.String("role", role),
	)
	return user, nil
}

// IssueSessionToken はユーザー名とロールを含むセッショントークンを発行する。
func (s *Service) IssueSessionToken(username, role string) (string, time.Time, error) {
	token, expiresAt, err := s.tokens.Issue(username, role)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, expiresAt, nil
}

// EnsureDefaultAdmin は管理者が1人もいない場合に初期管理者を作成する。
// passwordが空の場合は何もしない。作成した場合はtrueを返す。
func (s *Service) EnsureDefaultAdmin(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	exists, err := s.userRepo.ExistsWithRole(ctx, model.AdminRole)
	if err != nil {
		return false, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.Register(ctx, RegisterInput{
		Username: DefaultAdminUsername,
		Password: password,
		Role:     model.AdminRole,
	})
	if err != nil {
		// 別プロセスが先に作成した場合
		if errors.Is(err, model.ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("default admin created", slog.String("username", DefaultAdminUsername))
	return true, nil
}

// rehash は旧形式のパスワードハッシュをbcryptに置き換える。
func (s *Service) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.Username, hash); err != nil {
		s.logger.Warn("password rehash failed",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return
	}
	user.PasswordHash = hash
}
