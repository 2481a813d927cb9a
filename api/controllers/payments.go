package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/api/validators"
	"github.com/jarilabs/jariecom-backend/internal/payments"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

func PaymentInitiate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payments.InitiateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), storeID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intentID, err := uuidParam(r, "intentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), storeID, intentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// DarajaWebhook receives the STK push result callback. Provider
// payloads carry fields we do not model, so decoding is lenient here
// rather than going through the strict body validator. Unknown
// checkout references are acknowledged so Safaricom stops retrying.
func DarajaWebhook(handler *payments.WebhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var callback payments.DarajaCallback
		if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed callback body"))
			return
		}

		result, err := handler.HandleDaraja(r.Context(), callback)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				logg.Warn(r.Context(), "daraja callback for unknown checkout request")
				responses.WriteSuccess(w, map[string]string{"status": "ignored"})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// IntaSendWebhook receives collection state changes. The shared
// challenge secret is checked inside the handler.
func IntaSendWebhook(handler *payments.WebhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var webhook payments.IntaSendWebhook
		if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body"))
			return
		}

		result, err := handler.HandleIntaSend(r.Context(), webhook)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				logg.Warn(r.Context(), "intasend webhook for unknown invoice")
				responses.WriteSuccess(w, map[string]string{"status": "ignored"})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
