package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/laundrydesk-backend/api/middleware"
	"github.com/angelmondragon/laundrydesk-backend/api/responses"
	"github.com/angelmondragon/laundrydesk-backend/api/validators"
	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
)

// RegisterOpen opens a new shift register; only one may be open at a time.
func RegisterOpen(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cash.OpenRegisterInput
		if err := validators.DecodeOptionalJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		register, err := svc.OpenRegister(r.Context(), input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, register)
	}
}

func RegisterList(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListRegisters(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func RegisterCurrent(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		register, err := svc.CurrentRegister(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, register)
	}
}

func RegisterDetail(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "registerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		register, err := svc.GetRegister(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, register)
	}
}

func RegisterClose(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "registerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		register, err := svc.CloseRegister(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, register)
	}
}

// CashMovementCreate records a manual income or expense on the open register.
func CashMovementCreate(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cash.MovementInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.CreateMovement(r.Context(), input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, movement)
	}
}

func CashMovementList(svc cash.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filters cash.MovementFilters
		if filters.RegisterID, err = validators.ParseQueryUUID(r, "register_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.OrderID, err = validators.ParseQueryUUID(r, "order_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			mt := enums.CashMovementType(raw)
			if !mt.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type"))
				return
			}
			filters.MovementType = &mt
		}
		list, err := svc.ListMovements(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
