/**
 * @description
 * This package provides a client for the external payment gateway. It
 * encapsulates the logic for making authenticated HTTP requests to the
 * gateway's charge and payout endpoints, handling request body construction,
 * and parsing responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the payment gateway API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new payment gateway client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChargeRequest is the payload for pulling funds from a stored payment method.
type ChargeRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
	Amount          int64  `json:"amount"` // minor units
	Currency        string `json:"currency"`
	Description     string `json:"description,omitempty"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// PayoutRequest is the payload for pushing funds out to a payment method.
type PayoutRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description,omitempty"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// TransactionResponse is the gateway's response to a charge or payout.
type TransactionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// Succeeded reports whether the gateway accepted and settled the transaction.
func (r *TransactionResponse) Succeeded() bool {
	return r.Status == "succeeded" || r.Status == "completed"
}

// ErrorResponse represents an error from the gateway API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error: %s - %s", e.Code, e.Message)
	}
	return "unknown gateway error"
}

// Charge pulls funds from the given payment method. The idempotency key lets
// the gateway deduplicate retried pulls for the same schedule run.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*TransactionResponse, error) {
	return c.doTransaction(ctx, "/api/v1/charges", "charge", req)
}

// Payout pushes funds out to the given payment method.
func (c *Client) Payout(ctx context.Context, req PayoutRequest) (*TransactionResponse, error) {
	return c.doTransaction(ctx, "/api/v1/payouts", "payout", req)
}

// doTransaction is a generic helper to execute charge and payout requests.
func (c *Client) doTransaction(ctx context.Context, path, op string, payload interface{}) (*TransactionResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=gateway_client op=%s status=%d msg=\"non-2xx response (unparsable error body)\"", op, resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		errResp.Status = resp.StatusCode
		log.Printf("level=warn component=gateway_client op=%s status=%d code=%q msg=%q", op, resp.StatusCode, errResp.Code, errResp.Message)
		return nil, &errResp
	}

	var successResp TransactionResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode success response: %w", err)
	}

	return &successResp, nil
}
