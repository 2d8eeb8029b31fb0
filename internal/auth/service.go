package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/internal/users"
	pkgAuth "github.com/autopartsvn/backend/pkg/auth"
	"github.com/autopartsvn/backend/pkg/config"
	"github.com/autopartsvn/backend/pkg/db/models"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/googleauth"
	"github.com/autopartsvn/backend/pkg/security"
)

const (
	minUserNameLength = 3
	minPasswordLength = 8
	tempPasswordBytes = 24
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type googleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*googleauth.Identity, error)
}

// Service exposes registration and login flows.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, userName, password string) (*AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error)
}

type service struct {
	repo        users.Repository
	tx          txRunner
	google      googleVerifier
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// NewService builds an auth service. The google verifier may be nil,
// in which case GoogleLogin is rejected.
func NewService(repo users.Repository, tx txRunner, google googleVerifier, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		google:      google,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.UserName = strings.TrimSpace(input.UserName)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if len(input.UserName) < minUserNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName must be at least 3 characters")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fullName is required")
	}
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByUserName(ctx, input.UserName); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "userName already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check userName")
		}
		if _, err := repo.FindByEmail(ctx, input.Email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}

		created, err = repo.Create(ctx, &models.User{
			UserName:     input.UserName,
			PasswordHash: hash,
			FullName:     input.FullName,
			Email:        input.Email,
			Role:         enums.UserRoleUser,
			Address:      input.Address,
			Phone:        input.Phone,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.mint(created)
}

func (s *service) Login(ctx context.Context, userName, password string) (*AuthResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName and password are required")
	}

	user, err := s.repo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	match, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return s.mint(user)
}

// GoogleLogin verifies the ID token and signs the caller in, creating
// an account keyed on the Google email if none exists yet.
func (s *service) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google sign-in not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idToken is required")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByEmail(ctx, email)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		// First Google sign-in. The account gets a random password so
		// the local login path stays unusable until a reset.
		tempPassword, err := security.GenerateTempPassword(tempPasswordBytes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		hash, err := security.HashPassword(tempPassword, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}

		fullName := strings.TrimSpace(identity.FullName)
		if fullName == "" {
			fullName = email
		}
		record := &models.User{
			UserName:     email,
			PasswordHash: hash,
			FullName:     fullName,
			Email:        email,
			Role:         enums.UserRoleUser,
		}
		if picture := strings.TrimSpace(identity.Picture); picture != "" {
			record.AvatarURL = &picture
		}
		user, err = repo.Create(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.mint(user)
}

func (s *service) mint(user *models.User) (*AuthResult, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		UserName: user.UserName,
		Role:     user.Role,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &AuthResult{
		Token:     token,
		UserName:  user.UserName,
		FullName:  user.FullName,
		Role:      user.Role.String(),
		AvatarURL: user.AvatarURL,
	}, nil
}
