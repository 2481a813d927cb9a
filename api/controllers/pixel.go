package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/internal/pixel"
	"github.com/jarilabs/jariecom-backend/internal/stores"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

type pixelTrackBody struct {
	Slug        string `json:"slug"`
	Event       string `json:"event"`
	URL         string `json:"url"`
	Device      string `json:"device"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

// PixelTrack ingests a tracking hit from a storefront page. The
// endpoint always answers 204: a broken pixel must never break the
// page embedding it, so lookup and insert failures are logged and
// swallowed.
func PixelTrack(svc pixel.Service, storesSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer w.WriteHeader(http.StatusNoContent)

		if svc == nil || storesSvc == nil {
			return
		}

		var body pixelTrackBody
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return
			}
		} else {
			q := r.URL.Query()
			body = pixelTrackBody{
				Slug:        q.Get("slug"),
				Event:       q.Get("event"),
				URL:         q.Get("url"),
				Device:      q.Get("device"),
				UTMSource:   q.Get("utm_source"),
				UTMMedium:   q.Get("utm_medium"),
				UTMCampaign: q.Get("utm_campaign"),
			}
		}

		if body.Slug == "" || body.Event == "" {
			return
		}

		store, err := storesSvc.GetBySlug(r.Context(), body.Slug)
		if err != nil {
			logg.Warn(logg.WithField(r.Context(), "slug", body.Slug), "pixel hit for unknown store")
			return
		}

		_ = svc.Track(r.Context(), pixel.TrackInput{
			StoreID:     store.ID,
			Event:       body.Event,
			URL:         body.URL,
			Device:      body.Device,
			UTMSource:   body.UTMSource,
			UTMMedium:   body.UTMMedium,
			UTMCampaign: body.UTMCampaign,
		})
	}
}

// StoreAnalytics aggregates the merchant's pixel traffic. from/to are
// RFC 3339 query params; defaults cover the trailing 30 days.
func StoreAnalytics(svc pixel.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pixel service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var from, to time.Time
		if raw := r.URL.Query().Get("from"); raw != "" {
			from, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp"))
				return
			}
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp"))
				return
			}
		}

		result, err := svc.Analytics(r.Context(), storeID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
