package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tietracker/tiexport/internal/delivery"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/tietracker/tiexport/internal/export"
	"github.com/tietracker/tiexport/pkg/utils"
)

type exportFlags struct {
	strategy string
	project  string
	from     string
	to       string
	currency string
	vat      float64
	billable bool
}

var strategies = []string{delivery.StrategyNative, delivery.StrategyDownload, delivery.StrategyMobile}

func newExportCmd(a *app) *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project's time entries as xlsx",
		Long: `Export the time entries of a project over an inclusive range of days.

Strategies:
  native    - save into the configured export folder
  download  - save into the configured downloads folder
  mobile    - write into the app sandbox and share it`,
		Example: `  # Export March for project p1 into the downloads folder
  tiexport export --project p1 --from 2024-03-01 --to 2024-03-31

  # Billed summary with 7.7% VAT, shared from the sandbox
  tiexport export -s mobile -p p1 --from 2024-03-01 --billable --vat 7.7`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return f.validate(cmd)
		},
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, f)
		}),
	}

	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", delivery.StrategyDownload, "Delivery strategy ("+strings.Join(strategies, ", ")+")")
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project ID")
	cmd.Flags().StringVar(&f.from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&f.currency, "currency", "", "Currency code (default from config)")
	cmd.Flags().Float64Var(&f.vat, "vat", 0, "VAT rate in percent")
	cmd.Flags().BoolVar(&f.billable, "billable", false, "Include the billed summary")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func (f *exportFlags) validate(cmd *cobra.Command) error {
	valid := false
	for _, s := range strategies {
		if f.strategy == s {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("invalid strategy %q; must be one of: %s", f.strategy, strings.Join(strategies, ", "))
	}
	if f.currency != "" {
		if err := utils.ValidateCurrencyCode(f.currency); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("vat") {
		if err := utils.ValidateVATRate(f.vat); err != nil {
			return err
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, a *app, f *exportFlags) error {
	ctx := cmd.Context()

	from, err := utils.ParseDay(f.from, entity.DayLayout, time.Local)
	if err != nil {
		return err
	}
	to, err := utils.ParseDay(f.to, entity.DayLayout, time.Local)
	if err != nil {
		return err
	}

	project, err := a.container.Projects().GetByID(ctx, f.project)
	if err != nil {
		return err
	}

	currency := f.currency
	if currency == "" {
		currency = a.container.Config().Export.Currency
	}

	var vat *float64
	if cmd.Flags().Changed("vat") {
		vat = &f.vat
	}

	invoice := entity.NewInvoice(project)
	invoice.From, invoice.To = from, to

	result, err := a.container.Service().Export(ctx, f.strategy, export.Params{
		Invoice:  invoice,
		From:     from,
		To:       to,
		Currency: entity.Currency{Code: currency},
		VATRate:  vat,
		Billable: f.billable,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d days\t%d bytes\n", result.Strategy, result.Filename, len(result.Days), result.Size)
	return nil
}
