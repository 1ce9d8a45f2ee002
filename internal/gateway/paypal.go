// Package gateway talks to the external checkout provider.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
)

const issueOrderAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// PayPalClient implements checkout against the PayPal Orders v2 API.
type PayPalClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPayPalClient returns a client that fetches and refreshes its bearer
// token with the client-credentials grant. ctx scopes token requests.
func NewPayPalClient(ctx context.Context, cfg PayPalConfig) *PayPalClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	client := cc.Client(ctx)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &PayPalClient{baseURL: base, httpClient: client}
}

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      money  `json:"amount"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount money  `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (c *PayPalClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.GatewayOrder, error) {
	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: req.ReferenceID,
			Description: req.Description,
			Amount:      money{CurrencyCode: req.Currency, Value: req.Amount.StringFixed(2)},
		}},
		ApplicationContext: applicationContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL},
	}

	var resp orderResponse
	if err := c.do(ctx, "create order", "/v2/checkout/orders", body, &resp); err != nil {
		return nil, err
	}

	order := &domain.GatewayOrder{OrderID: resp.ID}
	for _, l := range resp.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApprovalURL = l.Href
			break
		}
	}
	if order.OrderID == "" {
		return nil, domain.NewInfrastructureError("paypal create order", fmt.Errorf("response carried no order id"))
	}
	return order, nil
}

func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*domain.CaptureConfirmation, error) {
	var resp orderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, "capture order", path, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.PurchaseUnits) == 0 || len(resp.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, domain.NewInfrastructureError("paypal capture order", fmt.Errorf("order %s returned no captures", orderID))
	}
	capture := resp.PurchaseUnits[0].Payments.Captures[0]
	amount, err := decimal.NewFromString(capture.Amount.Value)
	if err != nil {
		return nil, domain.NewInfrastructureError("paypal capture order", fmt.Errorf("parse captured amount %q: %w", capture.Amount.Value, err))
	}
	return &domain.CaptureConfirmation{
		CaptureID:      capture.ID,
		CapturedAmount: amount,
		PayerEmail:     resp.Payer.EmailAddress,
	}, nil
}

func (c *PayPalClient) do(ctx context.Context, op, path string, in, out any) error {
	var payload io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return domain.NewInfrastructureError("paypal "+op, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return domain.NewInfrastructureError("paypal "+op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	logger.ExternalServiceCall("paypal", op, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("paypal", op, err)
		return domain.NewInfrastructureError("paypal "+op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewInfrastructureError("paypal "+op, err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		for _, d := range apiErr.Details {
			if d.Issue == issueOrderAlreadyCaptured {
				logger.ExternalServiceResult("paypal", op, domain.ErrOrderAlreadyCaptured, "status", resp.StatusCode)
				return fmt.Errorf("paypal %s: %w", op, domain.ErrOrderAlreadyCaptured)
			}
		}
		err := fmt.Errorf("status %d: %s %s", resp.StatusCode, apiErr.Name, apiErr.Message)
		logger.ExternalServiceResult("paypal", op, err, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return domain.NewInvalidArgumentError("paypal order not found")
		}
		return domain.NewInfrastructureError("paypal "+op, err)
	}
	logger.ExternalServiceResult("paypal", op, nil, "status", resp.StatusCode)

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewInfrastructureError("paypal "+op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
