package domain

import (
	"time"
)

// Webhook is a registered outbound destination. Only active webhooks whose
// event set contains the dispatched event name receive deliveries.
type Webhook struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	Events             []string  `json:"events"`
	Secret             string    `json:"secret,omitempty"`
	IsActive           bool      `json:"is_active"`
	RateLimitPerSecond int       `json:"rate_limit_per_second"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type CreateWebhookRequest struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type UpdateWebhookRequest struct {
	Name               *string   `json:"name,omitempty"`
	URL                *string   `json:"url,omitempty"`
	Events             *[]string `json:"events,omitempty"`
	IsActive           *bool     `json:"is_active,omitempty"`
	RateLimitPerSecond *int      `json:"rate_limit_per_second,omitempty"`
}

// CreateWebhookResponse is the only place the generated secret is returned.
type CreateWebhookResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Secret string `json:"secret"`
}
