package api

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/viqi/internal/client/models"
)

type PlansResponse struct {
	Plans    []models.Plan `json:"plans"`
	GeoGroup string        `json:"geo_group,omitempty"`
}

func (c *Client) Plans(ctx context.Context) (*PlansResponse, error) {
	var out PlansResponse
	if err := c.get(ctx, "/api/payments/plans", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CheckoutRequest struct {
	PlanName      string              `json:"plan_name"`
	BillingCycle  models.BillingCycle `json:"billing_cycle"`
	SuccessURL    string              `json:"success_url"`
	CancelURL     string              `json:"cancel_url"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	PriceID       string              `json:"price_id,omitempty"`
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	var out models.CheckoutSession
	if err := c.post(ctx, "/api/payments/checkout", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the payments API whether the checkout session completed.
func (c *Client) Verify(ctx context.Context, sessionID, customerEmail string) (*models.PaymentVerification, error) {
	body := struct {
		CustomerEmail string `json:"customer_email,omitempty"`
	}{CustomerEmail: customerEmail}

	var out models.PaymentVerification
	if err := c.post(ctx, "/api/payments/verify/"+pathEscape(sessionID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
