package payments

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
)

// ConfirmationEvent is the canonical shape of a gateway payment confirmation.
// Gateways drift on field names and status vocabulary across integrations, so
// every inbound payload is normalized here before the rest of the workflow
// sees it.
type ConfirmationEvent struct {
	OrderNumber string
	ProviderRef string
	Status      string
	Amount      *decimal.Decimal
	Message     string
}

// Field names the gateway has been observed to use for the merchant order
// reference, matched case-insensitively.
var orderNumberAliases = []string{"externalref", "orderref", "external_reference"}

var successStatuses = map[string]struct{}{
	"success":    {},
	"successful": {},
	"completed":  {},
	"paid":       {},
	"1":          {},
}

// Success reports whether the event's status is one of the gateway's
// success variants.
func (e *ConfirmationEvent) Success() bool {
	return isSuccessStatus(e.Status)
}

func isSuccessStatus(status string) bool {
	_, ok := successStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// ParseConfirmationJSON decodes a JSON callback body and normalizes it.
// Numbers stay json.Number so integer statuses like 1 survive intact.
func ParseConfirmationJSON(body io.Reader) (*ConfirmationEvent, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload")
	}
	return ParseConfirmation(payload)
}

// ParseConfirmation normalizes a decoded callback payload. It fails only when
// the merchant order reference cannot be located; every other field is
// optional.
func ParseConfirmation(payload map[string]any) (*ConfirmationEvent, error) {
	if len(payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "callback payload is empty")
	}

	lowered := make(map[string]any, len(payload))
	for key, value := range payload {
		lowered[strings.ToLower(strings.TrimSpace(key))] = value
	}

	var orderNumber string
	for _, alias := range orderNumberAliases {
		if value := stringify(lowered[alias]); value != "" {
			orderNumber = value
			break
		}
	}
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference missing from callback payload")
	}

	return &ConfirmationEvent{
		OrderNumber: orderNumber,
		ProviderRef: stringify(lowered["reference"]),
		Status:      stringify(lowered["status"]),
		Amount:      parseAmount(lowered["amount"]),
		Message:     stringify(lowered["message"]),
	}, nil
}

// ParseConfirmationForm normalizes a form-encoded callback body.
func ParseConfirmationForm(values url.Values) (*ConfirmationEvent, error) {
	payload := make(map[string]any, len(values))
	for key := range values {
		payload[key] = values.Get(key)
	}
	return ParseConfirmation(payload)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// parseAmount tolerates numeric and string amounts; anything unparseable is
// treated as absent rather than rejected, since the amount never gates the
// transition.
func parseAmount(value any) *decimal.Decimal {
	switch v := value.(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil
		}
		return &d
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}
