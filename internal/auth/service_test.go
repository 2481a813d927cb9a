package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	pkgauth "github.com/jarilabs/jariecom-backend/pkg/auth"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/security"
)

type stubUserRepo struct {
	user       *models.User
	lastLogins int
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	s.lastLogins++
	return nil
}

type stubOwnerStoreRepo struct {
	store *models.Store
}

func (s *stubOwnerStoreRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) (*models.Store, error) {
	if s.store == nil || s.store.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.store, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-key",
		Issuer:            "jariecom",
		ExpirationMinutes: 60,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func testUser(t *testing.T, password string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        "wanjiku@duka.co.ke",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
}

func ownedStore(ownerID uuid.UUID) *models.Store {
	return &models.Store{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Slug:              "duka-bora",
		Name:              "Duka Bora",
		ConfigVersion:     2,
		DefaultCheckout:   enums.CheckoutModeStandard,
		UnlockedCheckouts: pq.StringArray{"standard"},
	}
}

func buildAuthService(t *testing.T, userRepo *stubUserRepo, storeRepo *stubOwnerStoreRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:  userRepo,
		StoreRepo: storeRepo,
		JWTConfig: testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	store := ownedStore(user.ID)
	users := &stubUserRepo{user: user}
	svc := buildAuthService(t, users, &stubOwnerStoreRepo{store: store})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Wanjiku@duka.co.ke",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("access token should be issued")
	}
	if resp.Store == nil || resp.Store.Slug != "duka-bora" {
		t.Fatalf("store should ride along in the response")
	}
	if users.lastLogins != 1 {
		t.Fatalf("last login should be stamped")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user = %s, want %s", claims.UserID, user.ID)
	}
	if claims.StoreID == nil || *claims.StoreID != store.ID {
		t.Fatalf("token should carry the store id")
	}
	if claims.Role != enums.UserRoleMerchant {
		t.Fatalf("token role = %s, want merchant", claims.Role)
	}
}

func TestLoginMintsAdminRole(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	user.Role = enums.UserRoleAdmin
	svc := buildAuthService(t, &stubUserRepo{user: user}, &stubOwnerStoreRepo{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("token role = %s, want admin", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	svc := buildAuthService(t, &stubUserRepo{user: user}, &stubOwnerStoreRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "not-the-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := buildAuthService(t, &stubUserRepo{}, &stubOwnerStoreRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@duka.co.ke",
		Password: "whatever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	user.IsActive = false
	svc := buildAuthService(t, &stubUserRepo{user: user}, &stubOwnerStoreRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "hunter2hunter2",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("deactivated accounts must not log in, got %v", err)
	}
}

func TestLoginWithoutStore(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	svc := buildAuthService(t, &stubUserRepo{user: user}, &stubOwnerStoreRepo{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Store != nil {
		t.Fatalf("store should be nil when none exists")
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.StoreID != nil {
		t.Fatalf("token must not carry a store id")
	}
}

func TestMe(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	store := ownedStore(user.ID)
	svc := buildAuthService(t, &stubUserRepo{user: user}, &stubOwnerStoreRepo{store: store})

	resp, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("user should be returned")
	}
	if resp.Store == nil || resp.Store.ID != store.ID {
		t.Fatalf("store should be returned")
	}
}

func TestMeUnknownUser(t *testing.T) {
	svc := buildAuthService(t, &stubUserRepo{}, &stubOwnerStoreRepo{})

	_, err := svc.Me(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
