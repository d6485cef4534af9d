package paygate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aminufarouk/kiosa-backend/pkg/config"
	pkgerrors "github.com/aminufarouk/kiosa-backend/pkg/errors"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
)

var (
	errBaseURLRequired   = errors.New("gateway base url is required")
	errSecretKeyRequired = errors.New("gateway secret key is required")
	errLoggerRequired    = errors.New("gateway logger is required")
)

// TransactionStatus is the gateway's view of a payment, as reported by its
// status API.
type TransactionStatus struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
}

// Client calls the payment gateway's transaction status API with centralized
// auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	logger     *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		secretKey:  secretKey,
		logger:     logg,
	}

	logg.Info(ctx, "payment gateway client initialized")
	return c, nil
}

// CheckStatus queries the gateway for the transaction associated with the
// merchant reference.
func (c *Client) CheckStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	endpoint := fmt.Sprintf("%s/v1/transactions/status?reference=%s", c.baseURL, url.QueryEscape(reference))
	c.log(ctx, "request", "check_status", map[string]any{"reference": reference})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "check_status", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling gateway status API")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found at gateway").WithDetails(map[string]any{"reference": reference})
	}
	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", "check_status", map[string]any{"status_code": resp.StatusCode})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned status %d", resp.StatusCode))
	}

	var payload struct {
		Data TransactionStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}
	if payload.Data.Reference == "" {
		payload.Data.Reference = reference
	}

	c.log(ctx, "response", "check_status", map[string]any{
		"reference": payload.Data.Reference,
		"status":    payload.Data.Status,
	})
	return &payload.Data, nil
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	meta := map[string]any{"phase": phase, "operation": operation}
	for k, v := range fields {
		meta[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, meta), "gateway call")
}
