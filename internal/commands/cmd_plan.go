package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/backdate/internal/core/plan"
)

type PlanCmd struct {
	flags *Flags
}

// NewPlanCmd creates a new plan command
func NewPlanCmd(flags *Flags) *PlanCmd {
	return &PlanCmd{flags: flags}
}

// Register adds the plan command to the application
func (cmd *PlanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "plan",
		Usage:     "Preview the commit plan without executing it",
		UsageText: "backdate plan",
		Description: `Builds the commit manifest from the configured repository and prints it.

Nothing is written: no lock is taken and no git command runs. If a previous
apply run was interrupted, the saved plan is shown instead of a fresh one.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *PlanCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := cmd.flags.Config()
	if err != nil {
		return err
	}

	manifest, err := buildManifest(cmd.flags, cfg)
	if err != nil {
		return err
	}

	if len(manifest) == 0 {
		fmt.Println("No files matched; the plan is empty.")
		return nil
	}

	renderManifest(manifest)
	fmt.Printf("Plan: %d commits over %s\n", len(manifest), cfg.Window())
	return nil
}

func renderManifest(manifest plan.Manifest) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"#", "Timestamp", "Author", "Files", "Message"})
	for i, a := range manifest {
		subject, _, _ := strings.Cut(a.Message, "\n")
		tw.AppendRow(table.Row{
			i + 1,
			a.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("%s <%s>", a.AuthorName, a.AuthorEmail),
			len(a.Files),
			subject,
		})
	}
	tw.Render()
}
