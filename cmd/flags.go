package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-cleaner/internal/engine"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
// Persistent flags of the root command are found as well.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// selectionFromFlags reads the category flags of the clean command.
// At least one category must be chosen.
func selectionFromFlags(cmd *cobra.Command) (engine.Selection, error) {
	sel := engine.Selection{
		Duplicates: mustGetBool(cmd, "duplicates"),
		LowQuality: mustGetBool(cmd, "low-quality"),
		Blurry:     mustGetBool(cmd, "blurry"),
	}
	if !sel.Duplicates && !sel.LowQuality && !sel.Blurry {
		return sel, errors.New("select at least one of --duplicates, --low-quality or --blurry")
	}
	return sel, nil
}
