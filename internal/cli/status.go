package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/state"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last state of every customer job task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			states, err := state.NewFileMarker(cfg.StateDir).Latest()
			if err != nil {
				return err
			}
			if len(states) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no runs recorded under %s\n", cfg.StateDir)
				return err
			}
			return renderStates(cmd.OutOrStdout(), states)
		},
	}
}

func renderStates(w io.Writer, states []domain.State) error {
	table := tablewriter.NewWriter(w)
	table.Header("Customer", "Job", "Task", "Date", "OK", "At", "Error")
	for _, st := range states {
		ok := "yes"
		if !st.OK {
			ok = "no"
		}
		row := []string{st.Customer, st.Job, st.Task, st.Date, ok, st.At.UTC().Format(time.RFC3339), st.Error}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
