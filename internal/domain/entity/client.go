package entity

import "time"

// Client represents a customer projects are billed to
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"` // hex, e.g. #ff0000
	CreatedAt time.Time `json:"created_at"`
}

// Project represents a billable project owned by a client
type Project struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	HourlyRate float64   `json:"hourly_rate"`
	VAT        bool      `json:"vat"`
	Client     *Client   `json:"client,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
