package controllers

import (
	"context"
	"net/http"

	"github.com/autopartsvn/backend/api/responses"
	"github.com/autopartsvn/backend/api/validators"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/logger"
	"github.com/autopartsvn/backend/pkg/payos"
)

// PaymentGatewayAPI is the slice of the PayOS client the payment
// endpoints need.
type PaymentGatewayAPI interface {
	GetPaymentStatus(ctx context.Context, orderCode int64) (enums.PaymentStatus, error)
	CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*payos.PaymentLinkInfo, error)
}

func PaymentStatus(gateway PaymentGatewayAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		orderCode, err := validators.RequireQueryInt64(r, "orderCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := gateway.GetPaymentStatus(r.Context(), orderCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orderCode": orderCode,
			"status":    status.String(),
		})
	}
}

func PaymentCancel(gateway PaymentGatewayAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		orderCode, err := validators.RequireQueryInt64(r, "orderCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason := r.URL.Query().Get("reason")
		if reason == "" {
			reason = "cancelled by user"
		}

		info, err := gateway.CancelPaymentLink(r.Context(), orderCode, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}
