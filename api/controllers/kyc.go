package controllers

import (
	"net/http"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/api/validators"
	"github.com/jarilabs/jariecom-backend/internal/kyc"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

func KYCGet(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func KYCUploadDocs(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body kyc.UploadDocsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UploadDocs(r.Context(), storeID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func KYCSubmit(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitForReview(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// KYCApprove moves a submitted verification to approved, provisioning
// the settlement wallet along the way. Exposed on the review surface,
// not the merchant dashboard.
func KYCApprove(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := uuidParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Approve(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// KYCWallet returns the IntaSend wallet backing an approved store.
func KYCWallet(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := uuidParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Wallet(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func KYCReject(svc kyc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "kyc service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := uuidParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body kyc.RejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reject(r.Context(), storeID, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
