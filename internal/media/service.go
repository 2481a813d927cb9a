package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/cloudinary"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

// Content types the dashboard uploads into.
var allowedContentTypes = map[string]struct{}{
	"products": {},
	"theme":    {},
	"kyc":      {},
}

// SignRequest names the upload destination within the store's folder.
type SignRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type signer interface {
	SignUpload(storeID uuid.UUID, contentType string) (*cloudinary.UploadSignature, error)
	DeleteFolder(ctx context.Context, storeID uuid.UUID, contentType string) error
}

// Service hands out signed Cloudinary upload params and cleans up
// per-store folders.
type Service interface {
	SignUpload(ctx context.Context, storeID uuid.UUID, contentType string) (*cloudinary.UploadSignature, error)
	DeleteFolder(ctx context.Context, storeID uuid.UUID, contentType string) error
}

type service struct {
	cloudinary signer
}

// NewService builds a media service over the Cloudinary client.
func NewService(client signer) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("cloudinary client required")
	}
	return &service{cloudinary: client}, nil
}

func (s *service) SignUpload(_ context.Context, storeID uuid.UUID, contentType string) (*cloudinary.UploadSignature, error) {
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}
	signature, err := s.cloudinary.SignUpload(storeID, contentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload")
	}
	return signature, nil
}

func (s *service) DeleteFolder(ctx context.Context, storeID uuid.UUID, contentType string) error {
	if err := validateContentType(contentType); err != nil {
		return err
	}
	if err := s.cloudinary.DeleteFolder(ctx, storeID, contentType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete folder")
	}
	return nil
}

func validateContentType(contentType string) error {
	if _, ok := allowedContentTypes[contentType]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid content type")
	}
	return nil
}
