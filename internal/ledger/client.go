// Package ledger talks to the external receipt service that timestamps
// status changes. The returned hash is opaque and never interpreted.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// ReceiptRecorder records a status change and returns an opaque receipt.
type ReceiptRecorder interface {
	RecordStatusChange(ctx context.Context, ticketID string, status domain.TicketStatus) (string, error)
}

// Client is the HTTP implementation of ReceiptRecorder.
type Client struct {
	http *resty.Client
}

// NewClient builds a ledger client, or nil when no endpoint is configured.
func NewClient(cfg config.LedgerConfig) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{http: client}
}

type receiptRequest struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}

type receiptResponse struct {
	TxHash string `json:"tx_hash"`
}

// RecordStatusChange posts the status change and returns the receipt hash.
func (c *Client) RecordStatusChange(ctx context.Context, ticketID string, status domain.TicketStatus) (string, error) {
	var result receiptResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(receiptRequest{TicketID: ticketID, Status: string(status)}).
		SetResult(&result).
		Post("/receipts")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("ledger returned %s", resp.Status())
	}
	if result.TxHash == "" {
		return "", fmt.Errorf("ledger returned empty receipt")
	}
	return result.TxHash, nil
}
