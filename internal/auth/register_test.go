package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/internal/stores"
	"github.com/jarilabs/jariecom-backend/internal/users"
	pkgauth "github.com/jarilabs/jariecom-backend/pkg/auth"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data    map[string]*models.User
	created *models.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*models.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		Phone:        dto.Phone,
		Profile:      dto.Profile,
		IsActive:     true,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubRegisterStoreRepo struct {
	taken   map[string]bool
	created *models.Store
}

func (s *stubRegisterStoreRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	return s.taken[slug], nil
}

func (s *stubRegisterStoreRepo) Create(_ context.Context, dto stores.CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	store.ID = uuid.New()
	s.created = store
	return store, nil
}

type registerTestSetup struct {
	service   RegisterService
	userRepo  *stubRegisterUserRepo
	storeRepo *stubRegisterStoreRepo
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	storeRepo := &stubRegisterStoreRepo{taken: map[string]bool{}}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(*gorm.DB) registerUserRepository {
			return userRepo
		},
		StoreRepoFactory: func(*gorm.DB) registerStoreRepository {
			return storeRepo
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		JWTConfig: testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{service: svc, userRepo: userRepo, storeRepo: storeRepo}
}

func sampleRegisterRequest(email, business string) RegisterRequest {
	return RegisterRequest{
		Email:        email,
		Password:     "hunter2hunter2",
		BusinessName: business,
	}
}

func TestRegisterCreatesUserAndStore(t *testing.T) {
	setup := newRegisterTestSetup(t)

	resp, err := setup.service.Register(context.Background(), sampleRegisterRequest("Njeri@duka.co.ke", "Mama Njeri's Shop"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if setup.userRepo.created == nil || setup.userRepo.created.Email != "njeri@duka.co.ke" {
		t.Fatalf("user should be created with a lowercased email")
	}
	if setup.storeRepo.created == nil {
		t.Fatalf("store should be created")
	}
	if setup.storeRepo.created.OwnerID != setup.userRepo.created.ID {
		t.Fatalf("store owner should be the new user")
	}
	if setup.storeRepo.created.Slug != "mama-njeri-s-shop" {
		t.Fatalf("slug = %q", setup.storeRepo.created.Slug)
	}
	if setup.userRepo.created.Profile.String("business_name") != "Mama Njeri's Shop" {
		t.Fatalf("profile should carry the business name")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != setup.userRepo.created.ID {
		t.Fatalf("token user mismatch")
	}
	if claims.StoreID == nil || *claims.StoreID != setup.storeRepo.created.ID {
		t.Fatalf("token should carry the new store id")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["njeri@duka.co.ke"] = &models.User{ID: uuid.New(), Email: "njeri@duka.co.ke"}

	_, err := setup.service.Register(context.Background(), sampleRegisterRequest("njeri@duka.co.ke", "Second Shop"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if setup.storeRepo.created != nil {
		t.Fatalf("no store should be created for a duplicate email")
	}
}

func TestRegisterUniquifiesSlug(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.storeRepo.taken["duka-bora"] = true
	setup.storeRepo.taken["duka-bora-2"] = true

	if _, err := setup.service.Register(context.Background(), sampleRegisterRequest("owner@duka.co.ke", "Duka Bora")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if setup.storeRepo.created.Slug != "duka-bora-3" {
		t.Fatalf("slug = %q, want duka-bora-3", setup.storeRepo.created.Slug)
	}
}

func TestRegisterRequiresBusinessName(t *testing.T) {
	setup := newRegisterTestSetup(t)

	_, err := setup.service.Register(context.Background(), sampleRegisterRequest("owner@duka.co.ke", "   "))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
