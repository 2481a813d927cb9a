package kyc

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
)

// UploadDocsRequest carries the hosted document URLs. All three are
// required before submission is possible.
type UploadDocsRequest struct {
	IDDocumentURL     string `json:"id_document_url" validate:"required,url"`
	BusinessPermitURL string `json:"business_permit_url" validate:"required,url"`
	SelfieURL         string `json:"selfie_url" validate:"required,url"`
}

// RejectRequest carries the reviewer's reason for a rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// KYCDTO is the transport shape for KYC reads.
type KYCDTO struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"store_id"`
	Status            enums.KYCStatus `json:"status"`
	IDDocumentURL     *string         `json:"id_document_url,omitempty"`
	BusinessPermitURL *string         `json:"business_permit_url,omitempty"`
	SelfieURL         *string         `json:"selfie_url,omitempty"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	ResubmissionCount int             `json:"resubmission_count"`
	IntaSendWalletID  *string         `json:"intasend_wallet_id,omitempty"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// WalletDTO surfaces the provider-side settlement wallet on the
// review dashboard.
type WalletDTO struct {
	WalletID         string `json:"wallet_id"`
	Label            string `json:"label"`
	Currency         string `json:"currency"`
	CanDisburse      bool   `json:"can_disburse"`
	AvailableBalance string `json:"available_balance"`
}

func walletFromIntaSend(wallet intasend.Wallet) *WalletDTO {
	return &WalletDTO{
		WalletID:         wallet.WalletID,
		Label:            wallet.Label,
		Currency:         wallet.Currency,
		CanDisburse:      wallet.CanDisburse,
		AvailableBalance: wallet.AvailableFunds,
	}
}

func FromModel(record *models.MerchantKYC) *KYCDTO {
	if record == nil {
		return nil
	}
	return &KYCDTO{
		ID:                record.ID,
		StoreID:           record.StoreID,
		Status:            record.Status,
		IDDocumentURL:     record.IDDocumentURL,
		BusinessPermitURL: record.BusinessPermitURL,
		SelfieURL:         record.SelfieURL,
		RejectionReason:   record.RejectionReason,
		ResubmissionCount: record.ResubmissionCount,
		IntaSendWalletID:  record.IntaSendWalletID,
		SubmittedAt:       record.SubmittedAt,
		ReviewedAt:        record.ReviewedAt,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}
