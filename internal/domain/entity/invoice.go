package entity

import "time"

// Invoice is the read-only selection an export is built from
type Invoice struct {
	ProjectID *string    `json:"project_id"`
	Client    *Client    `json:"client,omitempty"`
	Project   *Project   `json:"project,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// ClientName returns the client display name or an empty string
func (i *Invoice) ClientName() string {
	if i == nil || i.Client == nil {
		return ""
	}
	return i.Client.Name
}

// NewInvoice builds an invoice for a project and its client
func NewInvoice(project *Project) *Invoice {
	if project == nil {
		return &Invoice{}
	}
	id := project.ID
	return &Invoice{
		ProjectID: &id,
		Client:    project.Client,
		Project:   project,
	}
}
