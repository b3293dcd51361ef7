package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/gradfetch/internal/output"
)

// addIOFlags registers the -i/-o/--format flags shared by file commands.
func addIOFlags(cmd *cobra.Command, withInput bool) {
	flags := cmd.Flags()
	if withInput {
		flags.StringP("input", "i", "", "input file (.json, .jsonl or .yaml)")
		_ = cmd.MarkFlagRequired("input")
	}
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "", "output format: json, jsonl, yaml (default: from the output extension, else json)")
}

// readInput loads the -i file.
func readInput[T any](cmd *cobra.Command) ([]T, error) {
	path, _ := cmd.Flags().GetString("input")
	recs, err := output.LoadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return recs, nil
}

// writeOutput writes recs to the -o file, or stdout when none is given.
func writeOutput[T any](cmd *cobra.Command, recs []T) error {
	path, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")

	format := output.FormatJSON
	switch {
	case formatName != "":
		f, err := output.ParseFormat(formatName)
		if err != nil {
			return err
		}
		format = f
	case path != "":
		format = output.FormatFromPath(path)
	}

	dst := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		dst = f
	}

	w, err := output.NewWriter(dst, format)
	if err != nil {
		return err
	}
	if err := output.WriteRecords(w, recs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
