package controllers

import (
	"net/http"
	"strconv"

	"github.com/jarilabs/jariecom-backend/api/responses"
	"github.com/jarilabs/jariecom-backend/api/validators"
	"github.com/jarilabs/jariecom-backend/internal/orders"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/pagination"
)

// OrderCreate is the public checkout endpoint. Buyers are anonymous;
// the target store is resolved from the slug in the body.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			status = &parsed
		}

		page := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			page.Limit = limit
		}

		result, err := svc.List(r.Context(), storeID, status, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !body.Status.IsValid() {
			err := pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStatus(r.Context(), storeID, orderID, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func OrderStats(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Stats(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
