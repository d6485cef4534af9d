package controllers

import (
	"net/http"

	"github.com/aminufarouk/kiosa-backend/api/responses"
	"github.com/aminufarouk/kiosa-backend/api/validators"
	"github.com/aminufarouk/kiosa-backend/internal/checkout"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

// Checkout places an order from priced catalog items. The response carries
// the order number the client later uses for payment verification.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input checkout.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
