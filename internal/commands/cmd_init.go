package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

const starterConfig = `# backdate configuration
repo_path: .

# Window over which commits are spread, starting now.
# Units: w, d, h, m, s ("2h", "1d 30m").
duration: 7d

# even spreads commits uniformly across the window; random draws each
# timestamp independently.
mode: even

# Omit to derive the commit count from the file count (1 per 5 files).
# total_commits: 12

patterns:
  - "**/*"

# Weights must sum to 1.0.
authors:
  - name: Alice
    email: alice@example.com
    weight: 0.5
  - name: Bob
    email: bob@example.com
    weight: 0.5
`

type InitCmd struct {
	flags *Flags
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Generate a starter configuration file",
		UsageText: "backdate init",
		Action:    cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	path := cmd.flags.ConfigPath

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Generated %s\n", path)
	return nil
}
