package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/interrail/forwarding/internal/auth/domain"
	"github.com/interrail/forwarding/internal/config"
	"github.com/interrail/forwarding/pkg/db"
	"github.com/interrail/forwarding/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	users      repository.Repository[domain.User]
	sessions   repository.Repository[domain.Session]
	sessionTTL time.Duration
}

func New(p ServiceParam) domain.Service {
	ttl := time.Duration(p.Cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		log:        p.Log.Named("auth.service"),
		genID:      p.GenID,
		users:      repository.ProvideStore[domain.User](p.DB),
		sessions:   repository.ProvideStore[domain.Session](p.DB),
		sessionTTL: ttl,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.User{}, domain.ErrInvalidUsername
	}
	if len(req.Password) < 8 {
		return domain.User{}, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResult, error) {
	user, err := s.users.FindOne(ctx, &domain.User{Username: strings.TrimSpace(req.Username)})
	if err != nil {
		return domain.LoginResult{}, err
	}
	if user == nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	rawToken, err := generateToken()
	if err != nil {
		return domain.LoginResult{}, err
	}

	session := domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return domain.LoginResult{}, err
	}

	return domain.LoginResult{User: *user, RawToken: rawToken}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.sessions.FindOne(ctx, &domain.Session{TokenHash: hashToken(rawToken)})
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.sessions.Delete(ctx, session.ID.String())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (domain.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return domain.User{}, domain.ErrInvalidSession
	}

	session, err := s.sessions.FindOne(ctx, &domain.Session{TokenHash: hashToken(rawToken)})
	if err != nil {
		return domain.User{}, err
	}
	if session == nil {
		return domain.User{}, domain.ErrInvalidSession
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return domain.User{}, domain.ErrSessionExpired
	}

	user, err := s.users.FindOne(ctx, &domain.User{ID: session.UserID})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrInvalidSession
	}
	return *user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(req.NewPassword) < 8 {
		return domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, user.ID.String(), map[string]any{
		"password_hash": string(hash),
		"updated_at":    time.Now().UTC(),
	})
}

func (s *Service) GetByID(ctx context.Context, userID string) (domain.User, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.User{}, domain.ErrUserNotFound
	}

	user, err := s.users.FindOne(ctx, &domain.User{ID: id})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
