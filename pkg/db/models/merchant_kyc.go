package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// MerchantKYC is the one-per-store verification record.
type MerchantKYC struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID           uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex"`
	Status            enums.KYCStatus `gorm:"column:status;type:kyc_status;not null;default:'draft'"`
	IDDocumentURL     *string         `gorm:"column:id_document_url"`
	BusinessPermitURL *string         `gorm:"column:business_permit_url"`
	SelfieURL         *string         `gorm:"column:selfie_url"`
	RejectionReason   *string         `gorm:"column:rejection_reason"`
	ResubmissionCount int             `gorm:"column:resubmission_count;not null;default:0"`
	IntaSendWalletID  *string         `gorm:"column:intasend_wallet_id"`
	SubmittedAt       *time.Time      `gorm:"column:submitted_at"`
	ReviewedAt        *time.Time      `gorm:"column:reviewed_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
