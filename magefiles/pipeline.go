//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}

// Annotate builds the CLI and runs the impact annotation pass over every
// category in data/corpus.
func Annotate() error {
	mg.Deps(Build)
	cmd := exec.Command("./bin/"+binName, "annotate", "all")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Report builds the CLI, ingests the impact ledgers, and writes the
// aggregate summary.
func Report() error {
	mg.Deps(Build)
	for _, args := range [][]string{
		{"report", "ingest"},
		{"report", "summary"},
	} {
		cmd := exec.Command("./bin/"+binName, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return err
		}
	}
	return nil
}
