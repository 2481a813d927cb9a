package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/internal/storefront"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

// StorefrontGet serves the public storefront payload for a slug:
// normalized store config plus the active products.
func StorefrontGet(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			err := pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
