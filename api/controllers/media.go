package controllers

import (
	"net/http"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/api/validators"
	"github.com/jarilabs/jariecom-backend/internal/media"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

// MediaSignUpload returns the signed parameters a browser needs to
// upload directly to the store's Cloudinary folder.
func MediaSignUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body media.SignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignUpload(r.Context(), storeID, body.ContentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func MediaDeleteFolder(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body media.SignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteFolder(r.Context(), storeID, body.ContentType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
