// Package plan builds the ordered commit manifest applied by the engine.
package plan

import (
	"fmt"
	"strings"
	"time"
)

// Action is one scheduled commit: who, when, which files, and the message.
// Actions are created by the Planner and never mutated afterwards.
type Action struct {
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail"`
	Timestamp   time.Time `json:"timestamp"`
	Files       []string  `json:"files"`
	Message     string    `json:"message"`
}

// Manifest is the ordered sequence of commit actions. Order is semantically
// meaningful: it is the application order, and timestamps are non-decreasing
// along it.
type Manifest []Action

// Author is a weighted commit identity.
type Author struct {
	Name   string
	Email  string
	Weight float64
}

// Mode selects how timestamps are distributed across the duration.
type Mode string

const (
	ModeEven   Mode = "even"
	ModeRandom Mode = "random"
)

// maxMessageFiles caps how many file names are listed in a commit message.
const maxMessageFiles = 5

// commitMessage builds a deterministic summary message for a file group.
func commitMessage(files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update %d files", len(files))

	if len(files) > 0 {
		b.WriteString("\n\n- ")
		n := min(len(files), maxMessageFiles)
		b.WriteString(strings.Join(files[:n], "\n- "))
		if len(files) > maxMessageFiles {
			fmt.Fprintf(&b, "\n...and %d more.", len(files)-maxMessageFiles)
		}
	}

	return b.String()
}
