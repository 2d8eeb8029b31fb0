package auth

import (
	"context"
	"testing"

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

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[uuid.UUID]*models.User{}}
}

func (r *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return r }

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.byID[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	for _, u := range r.byID {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.byID[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	if u, ok := r.byID[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (r *stubUserRepo) ReplaceResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return nil
}

func (r *stubUserRepo) FindResetToken(ctx context.Context, userID uuid.UUID) (*models.PasswordResetToken, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubVerifier struct {
	identity *googleauth.Identity
	err      error
}

func (v *stubVerifier) Verify(ctx context.Context, rawToken string) (*googleauth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "autoparts",
		ExpirationMinutes: 60,
	}
}

func TestSignupAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc, err := NewService(repo, stubTx{}, nil, testJWTConfig(), config.PasswordConfig{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Signup(context.Background(), SignupInput{
		UserName: "johndoe",
		Password: "s3cret-pass",
		FullName: "John Doe",
		Email:    "John@Example.com",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if result.Token == "" || result.Role != "USER" {
		t.Fatalf("unexpected result %+v", result)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("minted token should parse: %v", err)
	}
	if claims.UserName != "johndoe" || claims.Role != enums.UserRoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}

	login, err := svc.Login(context.Background(), "johndoe", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.UserName != "johndoe" {
		t.Fatalf("unexpected login result %+v", login)
	}
}

func TestSignupDuplicates(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo, stubTx{}, nil, testJWTConfig(), config.PasswordConfig{})

	input := SignupInput{
		UserName: "johndoe",
		Password: "s3cret-pass",
		FullName: "John Doe",
		Email:    "john@example.com",
	}
	if _, err := svc.Signup(context.Background(), input); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	_, err := svc.Signup(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	input.UserName = "janedoe"
	_, err = svc.Signup(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT on duplicate email, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := NewService(newStubUserRepo(), stubTx{}, nil, testJWTConfig(), config.PasswordConfig{})

	cases := []SignupInput{
		{UserName: "jd", Password: "s3cret-pass", FullName: "J D", Email: "jd@example.com"},
		{UserName: "johndoe", Password: "short", FullName: "John", Email: "jd@example.com"},
		{UserName: "johndoe", Password: "s3cret-pass", FullName: "", Email: "jd@example.com"},
		{UserName: "johndoe", Password: "s3cret-pass", FullName: "John", Email: ""},
	}
	for i, input := range cases {
		_, err := svc.Signup(context.Background(), input)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected VALIDATION, got %v", i, err)
		}
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newStubUserRepo()
	hash, err := security.HashPassword("correct-pass", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.Create(context.Background(), &models.User{
		UserName:     "johndoe",
		PasswordHash: hash,
		FullName:     "John Doe",
		Email:        "john@example.com",
		Role:         enums.UserRoleUser,
	})
	svc, _ := NewService(repo, stubTx{}, nil, testJWTConfig(), config.PasswordConfig{})

	_, err = svc.Login(context.Background(), "johndoe", "wrong-pass")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}

	_, err = svc.Login(context.Background(), "nobody", "whatever-pass")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unknown user should read as UNAUTHORIZED, got %v", err)
	}
}

func TestGoogleLoginCreatesAccountOnce(t *testing.T) {
	repo := newStubUserRepo()
	verifier := &stubVerifier{identity: &googleauth.Identity{
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Picture:  "https://lh3.example.com/jane.png",
	}}
	svc, _ := NewService(repo, stubTx{}, verifier, testJWTConfig(), config.PasswordConfig{})

	first, err := svc.GoogleLogin(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("GoogleLogin: %v", err)
	}
	if first.UserName != "jane@example.com" || first.FullName != "Jane Doe" {
		t.Fatalf("unexpected result %+v", first)
	}
	if first.AvatarURL == nil || *first.AvatarURL != "https://lh3.example.com/jane.png" {
		t.Fatalf("avatar not carried over: %+v", first)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected one account, got %d", len(repo.byID))
	}

	second, err := svc.GoogleLogin(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("second GoogleLogin: %v", err)
	}
	if second.UserName != first.UserName {
		t.Fatalf("second login should reuse the account")
	}
	if len(repo.byID) != 1 {
		t.Fatalf("second login must not create another account, got %d", len(repo.byID))
	}
}

func TestGoogleLoginInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid google token")}
	svc, _ := NewService(newStubUserRepo(), stubTx{}, verifier, testJWTConfig(), config.PasswordConfig{})

	_, err := svc.GoogleLogin(context.Background(), "bad-token")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
