package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/config"
	"github.com/autopartsvn/backend/pkg/db/models"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/mailer"
	"github.com/autopartsvn/backend/pkg/security"
)

const (
	resetCodeTTL      = 10 * time.Minute
	minPasswordLength = 8
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes account profile and password recovery operations.
type Service interface {
	GetByUsername(ctx context.Context, userName string) (*Profile, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*Profile, error)
	UpdateAvatar(ctx context.Context, userName, avatarURL string) (*Profile, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) (bool, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type service struct {
	repo        Repository
	tx          txRunner
	mail        mailer.Mailer
	passwordCfg config.PasswordConfig
}

// NewService builds a user service backed by the provided stack.
func NewService(repo Repository, tx txRunner, mail mailer.Mailer, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &service{repo: repo, tx: tx, mail: mail, passwordCfg: passwordCfg}, nil
}

func (s *service) GetByUsername(ctx context.Context, userName string) (*Profile, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName is required")
	}
	user, err := s.findByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	return NewProfile(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*Profile, error) {
	input.UserName = strings.TrimSpace(input.UserName)
	if input.UserName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName is required")
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByUserName(ctx, input.UserName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		if input.FullName != nil {
			name := strings.TrimSpace(*input.FullName)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "fullName must not be empty")
			}
			user.FullName = name
		}
		if input.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*input.Email))
			if email == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "email must not be empty")
			}
			user.Email = email
		}
		if input.Address != nil {
			user.Address = input.Address
		}
		if input.Phone != nil {
			user.Phone = input.Phone
		}
		updated, err = repo.Update(ctx, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProfile(updated), nil
}

func (s *service) UpdateAvatar(ctx context.Context, userName, avatarURL string) (*Profile, error) {
	userName = strings.TrimSpace(userName)
	avatarURL = strings.TrimSpace(avatarURL)
	if userName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userName is required")
	}
	if avatarURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatarUrl is required")
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByUserName(ctx, userName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		user.AvatarURL = &avatarURL
		updated, err = repo.Update(ctx, user)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update avatar")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProfile(updated), nil
}

// ForgotPassword mints a fresh 4-digit code, stores it with a ten
// minute expiry and emails it. Any prior code for the user is replaced.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := security.GenerateResetCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset code")
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		ResetCode: code,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceResetToken(ctx, token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset code")
		}
		return nil
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your AutoParts password reset code is %s. It expires in 10 minutes.", code)
	if err := s.mail.Send(ctx, user.Email, "AutoParts password reset", body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reset email")
	}
	return nil
}

func (s *service) VerifyResetCode(ctx context.Context, email, code string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "email and code are required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	token, err := s.repo.FindResetToken(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reset code")
	}
	return tokenMatches(token, code), nil
}

// ResetPassword verifies the code, stores the new password hash and
// consumes the token in a single transaction.
func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and code are required")
	}
	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		token, err := repo.FindResetToken(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset code")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reset code")
		}
		if !tokenMatches(token, code) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset code")
		}
		if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
		}
		if err := repo.DeleteResetToken(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume reset code")
		}
		return nil
	})
}

func (s *service) findByUserName(ctx context.Context, userName string) (*models.User, error) {
	user, err := s.repo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func tokenMatches(token *models.PasswordResetToken, code string) bool {
	if token == nil {
		return false
	}
	if time.Now().After(token.ExpiresAt) {
		return false
	}
	return token.ResetCode == code
}
