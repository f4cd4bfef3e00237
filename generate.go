package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jinzhu/inflection"
	"github.com/spf13/cobra"

	"github.com/untout/persistence/internal/gen"
	"github.com/untout/persistence/internal/naming"
)

type structFlags struct {
	typeName string
	table    string
	plural   bool
	source   string
}

func (f *structFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typeName, "type", "", "struct type name (required)")
	cmd.Flags().StringVar(&f.table, "table", "", "explicit table name (optional)")
	cmd.Flags().BoolVar(&f.plural, "plural", false, "set the table to the plural snake_case of -type")
	cmd.Flags().StringVar(&f.source, "source", "", "Go source file (defaults to $GOFILE)")
	_ = cmd.MarkFlagRequired("type")
}

// load parses the struct and applies the table flags.
func (f *structFlags) load() (*gen.StructInfo, error) {
	source := f.source
	if source == "" {
		source = os.Getenv("GOFILE")
	}
	if source == "" {
		return nil, errors.New("no source file: pass --source or run via go:generate")
	}

	info, err := gen.Parse(source, f.typeName)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	switch {
	case f.table != "":
		info.TableName = f.table
	case f.plural:
		info.TableName = inferTableName(f.typeName)
	}
	return info, nil
}

func newGenerateCmd() *cobra.Command {
	var (
		flags  structFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the entity descriptor and mapping for a struct",
		Example: `  //go:generate persistgen generate --type Article
  persistgen generate --type Article --source model/article.go --plural`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := flags.load()
			if err != nil {
				return err
			}

			src, err := gen.Render(info)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}

			outPath := output
			if outPath == "" {
				source := flags.source
				if source == "" {
					source = os.Getenv("GOFILE")
				}
				outPath = filepath.Join(filepath.Dir(source), naming.CamelToSnake(info.Name)+"_entity.go")
			}

			if err := os.WriteFile(outPath, src, 0o644); err != nil { //nolint:gosec // generated code should be world-readable
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", color.GreenString("persistgen:"), outPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to <type>_entity.go next to the source)")
	return cmd
}

// inferTableName converts a CamelCase type name to a snake_case plural table name.
// e.g. "User" -> "users", "UserProfile" -> "user_profiles"
func inferTableName(typeName string) string {
	return inflection.Plural(naming.CamelToSnake(typeName))
}
