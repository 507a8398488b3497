package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Bitlatte/shitdocs/internal/collection"
	"github.com/Bitlatte/shitdocs/internal/ctxlog"
)

var schemaOutDir string

var schemaCmd = &cobra.Command{
	Use:   "schema [collection...]",
	Short: "Prints the JSON Schema of each collection's front matter",
	Long: `The schema command emits a JSON Schema document for every named collection
(all collections when none are given). With --out, each schema is written
to <out>/<collection>.schema.json for use by editors; otherwise the schemas
are printed to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := newBuilder(cmd).Registry
		names := args
		if len(names) == 0 {
			names = registry.Names()
		}

		defs := make([]collection.Definition, 0, len(names))
		for _, name := range names {
			def, ok := registry.Lookup(name)
			if !ok {
				return &collection.UnknownCollectionError{Collection: name}
			}
			if _, err := def.Compile(); err != nil {
				return err
			}
			defs = append(defs, def)
		}

		if schemaOutDir != "" {
			if err := os.MkdirAll(schemaOutDir, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create schema directory '%s': %w", schemaOutDir, err)
			}
		}
		for _, def := range defs {
			raw, err := def.MarshalJSONSchema()
			if err != nil {
				return err
			}
			if schemaOutDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				continue
			}
			path := filepath.Join(schemaOutDir, def.Name+".schema.json")
			if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write schema '%s': %w", path, err)
			}
			ctxlog.FromContext(cmd.Context()).Info("Wrote schema", "collection", def.Name, "path", path)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutDir, "out", "o", "", "directory to write <collection>.schema.json files into")
	rootCmd.AddCommand(schemaCmd)
}
