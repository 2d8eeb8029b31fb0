package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autopartsvn/backend/pkg/config"
	"github.com/autopartsvn/backend/pkg/enums"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/logger"
)

const (
	paymentRequestsPath = "/v2/payment-requests"

	// gateway response codes
	codeSuccess            = "00"
	codeDuplicateOrderCode = "231"
)

var (
	errClientIDRequired    = errors.New("payos client id is required")
	errAPIKeyRequired      = errors.New("payos api key is required")
	errChecksumKeyRequired = errors.New("payos checksum key is required")
	errLoggerRequired      = errors.New("payos logger is required")
)

// Client talks to the payment-link gateway with centralized auth, signing,
// and error mapping. It holds no state between calls.
type Client struct {
	baseURL     string
	clientID    string
	apiKey      string
	checksumKey string
	returnURL   string
	cancelURL   string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient validates the credentials and builds the gateway wrapper.
func NewClient(ctx context.Context, cfg config.PayOSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	checksumKey := strings.TrimSpace(cfg.ChecksumKey)
	if checksumKey == "" {
		return nil, errChecksumKeyRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		returnURL:   cfg.ReturnURL,
		cancelURL:   cfg.CancelURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logg,
	}

	logg.Info(ctx, "payos client initialized")
	return c, nil
}

// CreatePaymentLink registers orderCode with the gateway and returns the QR
// payload for the hosted checkout. A CONFLICT error means the code is already
// taken and the caller may retry with a fresh one.
func (c *Client) CreatePaymentLink(ctx context.Context, orderCode int64, amount int64, description string) (string, error) {
	if orderCode <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order code must be positive")
	}
	if amount <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := createPaymentRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: description,
		Items: []paymentItem{
			{Name: fmt.Sprintf("AutoParts Order #%d", orderCode), Quantity: 1, Price: amount},
		},
		CancelURL: c.cancelURL,
		ReturnURL: c.returnURL,
		Signature: signPaymentRequest(c.checksumKey, orderCode, amount, description, c.cancelURL, c.returnURL),
	}

	env, err := c.do(ctx, http.MethodPost, paymentRequestsPath, body)
	if err != nil {
		return "", err
	}
	if env.Data == nil || env.Data.QRCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no QR code")
	}
	return env.Data.QRCode, nil
}

// GetPaymentStatus fetches the current payment-link state for orderCode.
func (c *Client) GetPaymentStatus(ctx context.Context, orderCode int64) (enums.PaymentStatus, error) {
	if orderCode <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order code must be positive")
	}

	path := fmt.Sprintf("%s/%d", paymentRequestsPath, orderCode)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	if env.Data == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no payment data")
	}
	status, parseErr := enums.ParsePaymentStatus(env.Data.Status)
	if parseErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, parseErr, "unrecognized gateway payment status")
	}
	return status, nil
}

// CancelPaymentLink voids the payment link for orderCode.
func (c *Client) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*PaymentLinkInfo, error) {
	if orderCode <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code must be positive")
	}

	path := fmt.Sprintf("%s/%d/cancel", paymentRequestsPath, orderCode)
	env, err := c.do(ctx, http.MethodPost, path, cancelPaymentRequest{CancellationReason: reason})
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no payment data")
	}
	return env.Data.toInfo(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}

	if resp.StatusCode == http.StatusConflict || env.Code == codeDuplicateOrderCode {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order code already registered with gateway")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}
	if env.Code != codeSuccess {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment gateway rejected request: %s %s", env.Code, env.Desc))
	}
	return &env, nil
}
