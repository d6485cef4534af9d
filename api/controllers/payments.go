package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aminufarouk/kiosa-backend/api/responses"
	"github.com/aminufarouk/kiosa-backend/internal/payments"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

// PaymentCallback receives the gateway's server-to-server confirmation. The
// gateway reads success from the body, so error paths still produce the
// {success, message} shape alongside the mapped HTTP status.
func PaymentCallback(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := decodeConfirmation(r)
		if err != nil {
			writeCallbackError(r, logg, w, err)
			return
		}

		result, err := svc.HandleCallback(r.Context(), event)
		if err != nil {
			writeCallbackError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

type verifyRequest struct {
	OrderNumber string `json:"orderNumber"`
}

// PaymentVerify lets a returning client reconcile an order whose webhook was
// late or lost. It responds 200 with success=false when payment is simply not
// confirmed yet; only an unknown order is a 404.
func PaymentVerify(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}
		orderNumber := strings.TrimSpace(body.OrderNumber)
		if orderNumber == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number required"))
			return
		}

		result, err := svc.Verify(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

func decodeConfirmation(r *http.Request) (*payments.ConfirmationEvent, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form payload")
		}
		return payments.ParseConfirmationForm(r.PostForm)
	}
	return payments.ParseConfirmationJSON(r.Body)
}

func writeCallbackError(r *http.Request, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	message := typed.Message()
	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		message = meta.PublicMessage
	}

	if logg != nil {
		logg.Error(r.Context(), "payment callback rejected", err)
	}
	responses.WriteJSON(w, meta.HTTPStatus, payments.CallbackResult{
		Success: false,
		Message: message,
	})
}
