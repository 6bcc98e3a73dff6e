package export

import "github.com/tietracker/tiexport/internal/i18n"

// LabelKeys is the fixed set of export labels the worker renders
var LabelKeys = []string{
	"total",
	"vat_rate",
	"vat",
	"total_vat_excluded",
	"total_billable_hours",
	"description",
	"start_date",
	"start_time",
	"end_date",
	"end_time",
	"duration",
	"billable",
}

// ExportLabels localizes every export label key
func ExportLabels(l i18n.Localizer) map[string]string {
	labels := make(map[string]string, len(LabelKeys))
	for _, key := range LabelKeys {
		labels[key] = l.T(i18n.ExportNamespace + ":" + key)
	}
	return labels
}
