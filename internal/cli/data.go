package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tietracker/tiexport/internal/domain/entity"
)

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage clients"}

	var name, color string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a client and print its ID",
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			client := &entity.Client{ID: uuid.NewString(), Name: name, Color: color}
			if err := a.container.Projects().CreateClient(cmd.Context(), client); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&name, "name", "", "Client name")
	add.Flags().StringVar(&color, "color", "", "Client colour (#rrggbb)")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage projects"}

	var clientID, name string
	var rate float64
	var vat bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a project and print its ID",
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			project := &entity.Project{ID: uuid.NewString(), ClientID: clientID, Name: name, HourlyRate: rate, VAT: vat}
			if err := a.container.Projects().Create(cmd.Context(), project); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), project.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&clientID, "client", "", "Client ID")
	add.Flags().StringVar(&name, "name", "", "Project name")
	add.Flags().Float64Var(&rate, "rate", 0, "Hourly rate")
	add.Flags().BoolVar(&vat, "vat", false, "Project is subject to VAT")
	_ = add.MarkFlagRequired("client")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(add)
	return cmd
}

const timeLayout = "2006-01-02T15:04"

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage time entries"}

	var projectID, description, from, to string
	var billable bool
	add := &cobra.Command{
		Use:     "add",
		Short:   "Record a time entry",
		Example: `  tiexport task add --project p1 --from 2024-03-01T09:00 --to 2024-03-01T11:30 --billable`,
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			start, err := time.ParseInLocation(timeLayout, from, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := time.ParseInLocation(timeLayout, to, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("--to must not be before --from")
			}

			task := &entity.TaskEntry{ProjectID: projectID, Description: description, From: start, To: end, Billable: billable}
			if err := a.container.Tasks().Create(cmd.Context(), task); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&projectID, "project", "", "Project ID")
	add.Flags().StringVar(&description, "description", "", "What was done")
	add.Flags().StringVar(&from, "from", "", "Start (YYYY-MM-DDTHH:MM)")
	add.Flags().StringVar(&to, "to", "", "End (YYYY-MM-DDTHH:MM)")
	add.Flags().BoolVar(&billable, "billable", false, "Entry is billable")
	_ = add.MarkFlagRequired("project")
	_ = add.MarkFlagRequired("from")
	_ = add.MarkFlagRequired("to")

	cmd.AddCommand(add)
	return cmd
}
