package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/pipcet/ori/internal/core/treediff"
	"github.com/pipcet/ori/pkg/ori"
)

var (
	addedColor    = color.New(color.FgGreen)
	deletedColor  = color.New(color.FgRed)
	modifiedColor = color.New(color.FgYellow)
	conflictColor = color.New(color.FgRed, color.Bold)
)

// openRepository opens the repository containing the current directory.
func openRepository() (*ori.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return ori.Open(cwd)
}

// printDiffEntry prints a one-letter change line the way status and merge
// report them.
func printDiffEntry(e treediff.Entry) {
	c := modifiedColor
	switch e.Type {
	case treediff.NewFile, treediff.NewDir:
		c = addedColor
	case treediff.DeletedFile, treediff.DeletedDir:
		c = deletedColor
	}
	c.Printf("%c   %s\n", e.Type, e.Path)
}
