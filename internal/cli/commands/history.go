package commands

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/buster/internal/cli/config"
	"github.com/leapstack-labs/buster/internal/cli/output"
	"github.com/leapstack-labs/buster/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent deployments",
		Long:  `List deployments recorded in the local state database, newest first.`,
		Example: `  buster history
  buster history --limit 5 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of deployments to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	r := output.FromContext(ctx)

	if cfg.StatePath != ":memory:" {
		if _, err := os.Stat(cfg.StatePath); errors.Is(err, fs.ErrNotExist) {
			if r.Mode() == output.ModeJSON {
				return r.JSON([]state.Deployment{})
			}
			r.Println("No deployments recorded yet.")
			return nil
		}
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	deployments, err := store.ListDeployments(ctx, limit)
	if err != nil {
		return err
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(deployments)
	}
	if len(deployments) == 0 {
		r.Println("No deployments recorded yet.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Project", "When", "New", "Updated", "Unchanged", "Failed"})
	for _, d := range deployments {
		t.AppendRow(table.Row{
			shortID(d.ID),
			d.Project,
			d.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(d.SuccessCount),
			strconv.Itoa(d.UpdatedCount),
			strconv.Itoa(d.NoChangeCount),
			strconv.Itoa(d.FailureCount),
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
