package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autopartsvn/backend/pkg/config"
	"github.com/autopartsvn/backend/pkg/db/models"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/security"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	users  map[uuid.UUID]*models.User
	tokens map[uuid.UUID]*models.PasswordResetToken
}

func newStubRepo(users ...*models.User) *stubRepo {
	r := &stubRepo{
		users:  map[uuid.UUID]*models.User{},
		tokens: map[uuid.UUID]*models.PasswordResetToken{},
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	for _, u := range r.users {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *stubRepo) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (r *stubRepo) ReplaceResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	r.tokens[token.UserID] = token
	return nil
}

func (r *stubRepo) FindResetToken(ctx context.Context, userID uuid.UUID) (*models.PasswordResetToken, error) {
	if t, ok := r.tokens[userID]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	delete(r.tokens, userID)
	return nil
}

type stubMailer struct {
	sent []string
}

func (m *stubMailer) Send(ctx context.Context, to, subject, plainText string) error {
	m.sent = append(m.sent, plainText)
	return nil
}

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		UserName: "johndoe",
		FullName: "John Doe",
		Email:    "john@example.com",
	}
}

func TestGetByUsername(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, err := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	profile, err := svc.GetByUsername(context.Background(), "johndoe")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if profile.Email != "john@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}

	_, err = svc.GetByUsername(context.Background(), "nobody")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, _ := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})

	phone := "0123456789"
	profile, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserName: "johndoe",
		Phone:    &phone,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if profile.Phone == nil || *profile.Phone != phone {
		t.Fatalf("phone not updated: %+v", profile)
	}
	if profile.FullName != "John Doe" {
		t.Fatalf("fullName should be untouched, got %q", profile.FullName)
	}
}

func TestUpdateAvatar(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, _ := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})

	profile, err := svc.UpdateAvatar(context.Background(), "johndoe", "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if profile.AvatarURL == nil || *profile.AvatarURL != "https://cdn.example.com/a.png" {
		t.Fatalf("avatar not updated: %+v", profile)
	}

	_, err = svc.UpdateAvatar(context.Background(), "johndoe", "")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestForgotPasswordStoresAndMailsCode(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	mail := &stubMailer{}
	svc, _ := NewService(repo, stubTx{}, mail, config.PasswordConfig{})

	if err := svc.ForgotPassword(context.Background(), "john@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	token, ok := repo.tokens[user.ID]
	if !ok {
		t.Fatal("reset token not stored")
	}
	if len(token.ResetCode) != 4 {
		t.Fatalf("expected 4-digit code, got %q", token.ResetCode)
	}
	if remaining := time.Until(token.ExpiresAt); remaining <= 9*time.Minute || remaining > 10*time.Minute {
		t.Fatalf("unexpected expiry window: %v", remaining)
	}
	if len(mail.sent) != 1 || !strings.Contains(mail.sent[0], token.ResetCode) {
		t.Fatalf("email should carry the code, got %v", mail.sent)
	}

	// A second request replaces the prior token.
	first := token.ResetCode
	if err := svc.ForgotPassword(context.Background(), "john@example.com"); err != nil {
		t.Fatalf("ForgotPassword again: %v", err)
	}
	if repo.tokens[user.ID].ResetCode == first && len(mail.sent) != 2 {
		t.Fatal("second request should store a fresh token")
	}
}

func TestVerifyResetCode(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, _ := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})

	repo.tokens[user.ID] = &models.PasswordResetToken{
		UserID:    user.ID,
		ResetCode: "4321",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	ok, err := svc.VerifyResetCode(context.Background(), "john@example.com", "4321")
	if err != nil || !ok {
		t.Fatalf("expected valid code, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.VerifyResetCode(context.Background(), "john@example.com", "0000")
	if err != nil || ok {
		t.Fatalf("wrong code should not verify, got ok=%v err=%v", ok, err)
	}

	repo.tokens[user.ID].ExpiresAt = time.Now().Add(-time.Minute)
	ok, err = svc.VerifyResetCode(context.Background(), "john@example.com", "4321")
	if err != nil || ok {
		t.Fatalf("expired code should not verify, got ok=%v err=%v", ok, err)
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, _ := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})

	repo.tokens[user.ID] = &models.PasswordResetToken{
		UserID:    user.ID,
		ResetCode: "9876",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	if err := svc.ResetPassword(context.Background(), "john@example.com", "9876", "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	match, err := security.VerifyPassword("brand-new-pass", user.PasswordHash)
	if err != nil || !match {
		t.Fatalf("new password should verify, got match=%v err=%v", match, err)
	}
	if _, ok := repo.tokens[user.ID]; ok {
		t.Fatal("token should be consumed")
	}

	// The consumed token cannot be replayed.
	err = svc.ResetPassword(context.Background(), "john@example.com", "9876", "another-new-pass")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION on replay, got %v", err)
	}
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc, _ := NewService(repo, stubTx{}, &stubMailer{}, config.PasswordConfig{})

	err := svc.ResetPassword(context.Background(), "john@example.com", "1234", "short")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}
