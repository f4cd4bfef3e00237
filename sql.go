package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/untout/persistence/orm"
)

func newSQLCmd() *cobra.Command {
	var (
		flags    structFlags
		adapter  string
		acronyms bool
		dialect  string
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the CRUD statements a Builder produces for a struct",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := flags.load()
			if err != nil {
				return err
			}
			e, err := info.Entity()
			if err != nil {
				return err
			}

			a, err := nameAdapter(adapter, acronyms)
			if err != nil {
				return err
			}
			d, err := orm.DialectFor(dialect)
			if err != nil {
				return err
			}
			b, err := orm.NewBuilder(a, &e, d)
			if err != nil {
				return err
			}
			return printStatements(cmd.OutOrStdout(), b, e.FieldNames())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&adapter, "naming", "snake_case", "name adapter: snake_case or attribute")
	cmd.Flags().BoolVar(&acronyms, "acronyms", false, "keep acronyms together in snake_case names")
	cmd.Flags().StringVar(&dialect, "dialect", "postgres", "driver name of the target dialect (postgres, sqlite, mysql, sqlserver)")
	return cmd
}

func nameAdapter(name string, acronyms bool) (orm.NameAdapter, error) {
	switch name {
	case "snake_case", "snake":
		if acronyms {
			return orm.NewSnakeCaseAdapter(orm.WithAcronymGrouping()), nil
		}
		return orm.NewSnakeCaseAdapter(), nil
	case "attribute":
		return orm.NewAttributeAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown naming %q (want snake_case or attribute)", name)
	}
}

func printStatements(w io.Writer, b *orm.Builder, fields []string) error {
	label := color.New(color.Bold, color.FgCyan)

	stmts := []struct {
		name  string
		build func() (string, error)
	}{
		{"select all", func() (string, error) { return b.BuildSelectAll(), nil }},
		{"select by id", func() (string, error) { return b.BuildSelectByID(), nil }},
		{"insert", func() (string, error) { return b.BuildInsert(fields) }},
		{"update", func() (string, error) { return b.BuildUpdate(fields) }},
		{"delete", func() (string, error) { return b.BuildDelete(), nil }},
	}
	for _, s := range stmts {
		sql, err := s.build()
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", label.Sprintf("-- %s", s.name), sql); err != nil {
			return err //nolint:wrapcheck // pass through
		}
	}
	return nil
}
