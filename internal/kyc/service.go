package kyc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

type kycRepository interface {
	FindByStore(ctx context.Context, storeID uuid.UUID) (*models.MerchantKYC, error)
	Create(ctx context.Context, record *models.MerchantKYC) error
	Update(ctx context.Context, record *models.MerchantKYC) error
}

type walletProvisioner interface {
	CreateWallet(ctx context.Context, label, currency string) (*intasend.Wallet, error)
	ListWallets(ctx context.Context) ([]intasend.Wallet, error)
}

type addonEnabler interface {
	EnableAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) error
}

// Service drives the merchant verification workflow.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error)
	UploadDocs(ctx context.Context, storeID uuid.UUID, req UploadDocsRequest) (*KYCDTO, error)
	SubmitForReview(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error)
	Approve(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error)
	Reject(ctx context.Context, storeID uuid.UUID, reason string) (*KYCDTO, error)
	Wallet(ctx context.Context, storeID uuid.UUID) (*WalletDTO, error)
}

type service struct {
	repo    kycRepository
	wallets walletProvisioner
	addons  addonEnabler
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a KYC service with the provided dependencies.
func NewService(repo kycRepository, wallets walletProvisioner, addons addonEnabler, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kyc repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet provisioner required")
	}
	if addons == nil {
		return nil, fmt.Errorf("addon enabler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		wallets: wallets,
		addons:  addons,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Get returns the store's record, creating an empty draft on first read.
func (s *service) Get(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error) {
	record, err := s.findOrCreate(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return FromModel(record), nil
}

func (s *service) UploadDocs(ctx context.Context, storeID uuid.UUID, req UploadDocsRequest) (*KYCDTO, error) {
	record, err := s.findOrCreate(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanTransitionTo(enums.KYCStatusDocsUploaded) {
		return nil, transitionError(record.Status, enums.KYCStatusDocsUploaded)
	}
	resubmission := record.Status == enums.KYCStatusRejected

	record.IDDocumentURL = &req.IDDocumentURL
	record.BusinessPermitURL = &req.BusinessPermitURL
	record.SelfieURL = &req.SelfieURL
	record.Status = enums.KYCStatusDocsUploaded
	if resubmission {
		record.ResubmissionCount++
		record.RejectionReason = nil
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save documents")
	}
	return FromModel(record), nil
}

func (s *service) SubmitForReview(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error) {
	record, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.KYCStatusSubmittedToIntaSend) {
		return nil, transitionError(record.Status, enums.KYCStatusSubmittedToIntaSend)
	}

	now := s.now().UTC()
	record.Status = enums.KYCStatusSubmittedToIntaSend
	record.SubmittedAt = &now
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submit for review")
	}
	return FromModel(record), nil
}

// Approve finalizes verification: a working wallet is provisioned with
// a label derived from the store id and the mpesa_stk addon flips on.
func (s *service) Approve(ctx context.Context, storeID uuid.UUID) (*KYCDTO, error) {
	record, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.KYCStatusApproved) {
		return nil, transitionError(record.Status, enums.KYCStatusApproved)
	}

	wallet, err := s.wallets.CreateWallet(ctx, WalletLabel(storeID), "KES")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision wallet")
	}

	now := s.now().UTC()
	record.Status = enums.KYCStatusApproved
	record.IntaSendWalletID = &wallet.WalletID
	record.ReviewedAt = &now
	record.RejectionReason = nil
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save approval")
	}

	if err := s.addons.EnableAddon(ctx, storeID, enums.AddonFeatureMpesaSTK); err != nil {
		// The approval is already durable; surface the addon failure
		// so an operator can re-run it.
		s.logg.Error(ctx, "enable mpesa_stk addon after approval", err)
		return nil, err
	}
	return FromModel(record), nil
}

func (s *service) Reject(ctx context.Context, storeID uuid.UUID, reason string) (*KYCDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	record, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.KYCStatusRejected) {
		return nil, transitionError(record.Status, enums.KYCStatusRejected)
	}

	now := s.now().UTC()
	record.Status = enums.KYCStatusRejected
	record.RejectionReason = &reason
	record.ReviewedAt = &now
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save rejection")
	}
	return FromModel(record), nil
}

// Wallet looks up the store's provisioned settlement wallet on the
// IntaSend account. Only meaningful once the record is approved.
func (s *service) Wallet(ctx context.Context, storeID uuid.UUID) (*WalletDTO, error) {
	record, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.KYCStatusApproved || record.IntaSendWalletID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store has no provisioned wallet")
	}

	wallets, err := s.wallets.ListWallets(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallets")
	}
	for _, wallet := range wallets {
		if wallet.WalletID == *record.IntaSendWalletID {
			return walletFromIntaSend(wallet), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found on provider account")
}

// WalletLabel derives the IntaSend wallet label from the store id.
// IntaSend caps labels at 32 characters, so the uuid is compacted.
func WalletLabel(storeID uuid.UUID) string {
	compact := strings.ReplaceAll(storeID.String(), "-", "")
	return "store-" + compact[:20]
}

func (s *service) find(ctx context.Context, storeID uuid.UUID) (*models.MerchantKYC, error) {
	record, err := s.repo.FindByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kyc record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
	}
	return record, nil
}

func (s *service) findOrCreate(ctx context.Context, storeID uuid.UUID) (*models.MerchantKYC, error) {
	record, err := s.repo.FindByStore(ctx, storeID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load kyc record")
	}

	record = &models.MerchantKYC{
		StoreID: storeID,
		Status:  enums.KYCStatusDraft,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create kyc record")
	}
	return record, nil
}

func transitionError(from, to enums.KYCStatus) error {
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move verification from %s to %s", from, to),
	)
}
