package api

import (
	"context"

	"github.com/dmitrijs2005/viqi/internal/client/models"
)

func (c *Client) Subscription(ctx context.Context) (*models.SubscriptionStatus, error) {
	var out models.SubscriptionStatus
	if err := c.get(ctx, "/api/users/me/subscription", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
