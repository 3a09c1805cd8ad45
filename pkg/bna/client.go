package bna

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnasmart/gateway-backend/pkg/config"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

var (
	errAccessKeyRequired = errors.New("bna access key is required")
	errSecretKeyRequired = errors.New("bna secret key is required")
	errIframeIDRequired  = errors.New("bna iframe id is required")
	errInvalidBNAEnv     = fmt.Errorf("bna environment must be %q, %q or %q",
		config.BNAEnvDev, config.BNAEnvStaging, config.BNAEnvProduction)
	errLoggerRequired = errors.New("bna logger is required")
)

var baseURLs = map[string]string{
	config.BNAEnvDev:        "https://dev-api-service.bnasmartpayment.com",
	config.BNAEnvStaging:    "https://stage-api-service.bnasmartpayment.com",
	config.BNAEnvProduction: "https://api.bnasmartpayment.com",
}

// Client exposes BNA Smart Payment primitives with centralized auth,
// logging, and error mapping. All requests use HTTP basic auth with the
// merchant access/secret key pair.
type Client struct {
	httpClient  *http.Client
	accessKey   string
	secretKey   string
	iframeID    string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the BNA wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.BNAConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env := cfg.Environment()
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidBNAEnv
	}

	accessKey := strings.TrimSpace(cfg.AccessKey)
	if accessKey == "" {
		return nil, errAccessKeyRequired
	}
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}
	iframeID := strings.TrimSpace(cfg.IframeID)
	if iframeID == "" {
		return nil, errIframeIDRequired
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		accessKey:   accessKey,
		secretKey:   secretKey,
		iframeID:    iframeID,
		environment: env,
		baseURL:     baseURL,
		logger:      logg,
	}

	logg.Info(ctx, "bna client initialized")
	return c, nil
}

// Environment reports the normalized BNA environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// BaseURL returns the API origin for the configured environment.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// IframeID returns the configured checkout iframe id.
func (c *Client) IframeID() string {
	if c == nil {
		return ""
	}
	return c.iframeID
}

// do issues an authenticated request and decodes the JSON response body
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any, op string) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("bna %s encode failed", op))
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("bna %s request failed", op))
	}
	req.SetBasicAuth(c.accessKey, c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("bna %s failed", op))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("bna %s read failed", op))
	}

	if resp.StatusCode >= 400 {
		apiErr := c.mapError(resp.StatusCode, raw, op)
		c.log(ctx, "error", op, map[string]any{
			"status": resp.StatusCode,
			"error":  apiErr.Error(),
		})
		return apiErr
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("bna %s decode failed", op))
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("bna %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("bna %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "cvv", "cvc", "secret", "email", "phone", "account", "birth"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (c *Client) mapError(status int, raw []byte, op string) error {
	code := domainCodeForStatus(status)

	msg := fmt.Sprintf("status %d", status)
	var body apiErrorBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}
	return pkgerrors.Wrap(code, fmt.Errorf("%s", msg), fmt.Sprintf("bna %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
