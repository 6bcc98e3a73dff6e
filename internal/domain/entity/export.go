package entity

// Currency identifies the money unit amounts are rendered in
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol,omitempty"`
}

// ExportRequest is the structured input handed to the export worker.
// It must not be mutated after dispatch.
type ExportRequest struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	Client      *Client           `json:"client,omitempty"`
	InvoiceDays []string          `json:"invoices"`
	Currency    Currency          `json:"currency"`
	VATRate     *float64          `json:"vat,omitempty"`
	Billable    bool              `json:"bill"`
	Labels      map[string]string `json:"i18n"`
}

// Clone returns a deep copy safe to hand across goroutines
func (r *ExportRequest) Clone() *ExportRequest {
	if r == nil {
		return nil
	}
	out := *r
	if r.Client != nil {
		c := *r.Client
		out.Client = &c
	}
	if r.VATRate != nil {
		v := *r.VATRate
		out.VATRate = &v
	}
	out.InvoiceDays = append([]string(nil), r.InvoiceDays...)
	out.Labels = make(map[string]string, len(r.Labels))
	for k, v := range r.Labels {
		out.Labels[k] = v
	}
	return &out
}

// Artifact is the generated spreadsheet payload
type Artifact struct {
	RequestID string
	MIMEType  string
	Data      []byte
}

// Size returns the payload length in bytes
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}
