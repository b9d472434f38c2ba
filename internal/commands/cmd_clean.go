package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type CleanCmd struct {
	flags *Flags
}

// NewCleanCmd creates a new clean command
func NewCleanCmd(flags *Flags) *CleanCmd {
	return &CleanCmd{flags: flags}
}

// Register adds the clean command to the application
func (cmd *CleanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "clean",
		Usage:     "Remove the saved execution state",
		UsageText: "backdate clean",
		Description: `Removes the ledger file beside the repository, forcing the next apply to
start from a fresh plan. Use this after an aborted run you do not want to
resume, or when the saved plan no longer matches the repository.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *CleanCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := cmd.flags.Config()
	if err != nil {
		return err
	}

	led := ledgerStore(cfg)
	if err := led.Clear(); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", led.Path())
	return nil
}
