package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

type StatusCmd struct {
	flags *Flags
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags) *StatusCmd {
	return &StatusCmd{flags: flags}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show execution progress for the configured repository",
		UsageText: "backdate status",
		Action:    cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := cmd.flags.Config()
	if err != nil {
		return err
	}

	st, err := ledgerStore(cfg).Load()
	if err != nil {
		return err
	}
	if st == nil {
		fmt.Println("No execution state found; nothing has been applied.")
		return nil
	}

	applied := st.LastAppliedIndex + 1

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRow(table.Row{"Manifest hash", st.ManifestHash})
	tw.AppendRow(table.Row{"Applied", fmt.Sprintf("%d / %d", applied, st.TotalCommits)})
	tw.AppendRow(table.Row{"Complete", st.IsComplete})
	if st.LastCommitID != "" {
		tw.AppendRow(table.Row{"Last commit", st.LastCommitID})
	}
	tw.Render()

	return nil
}
