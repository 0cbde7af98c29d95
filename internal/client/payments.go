package client

import (
	"context"
	"net/http"
)

// CreatePaymentOrder starts a purchase of templateID.
func (c *Client) CreatePaymentOrder(ctx context.Context, templateID string) (*PaymentOrder, error) {
	var out PaymentOrder
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("create-payment-order/%s/", templateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPayment hands the gateway result to the backend for signature checks.
func (c *Client) VerifyPayment(ctx context.Context, conf PaymentConfirmation) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("verify-payment/"), conf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
