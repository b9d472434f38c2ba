package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/backdate/internal/core/engine"
	"github.com/colonyops/backdate/internal/core/git"
	"github.com/colonyops/backdate/internal/core/lock"
	"github.com/colonyops/backdate/pkg/executil"
)

type ApplyCmd struct {
	flags  *Flags
	dryRun bool
}

// NewApplyCmd creates a new apply command
func NewApplyCmd(flags *Flags) *ApplyCmd {
	return &ApplyCmd{flags: flags}
}

// Register adds the apply command to the application
func (cmd *ApplyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "apply",
		Usage:     "Apply the commit plan to the repository",
		UsageText: "backdate apply [--dry-run]",
		Description: `Builds (or resumes) the commit manifest and applies it one commit at a
time, checkpointing progress after each success. An interrupted run is
resumed exactly where it stopped by running apply again.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "simulate execution without modifying git history",
				Destination: &cmd.dryRun,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ApplyCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := cmd.flags.Config()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDeep(); err != nil {
		return err
	}

	manifest, err := buildManifest(cmd.flags, cfg)
	if err != nil {
		return err
	}

	gitExec := git.NewExecutor(cfg.GitPath, &executil.RealExecutor{}, log.With().Str("component", "git").Logger())
	locker := lock.New(filepath.Join(cfg.RepoPath, lock.Filename), log.With().Str("component", "lock").Logger())

	coord := engine.New(
		cfg.RepoPath,
		gitExec,
		ledgerStore(cfg),
		locker,
		log.With().Str("component", "engine").Logger(),
		os.Stdout,
	)

	return coord.Run(ctx, manifest, cmd.dryRun)
}
