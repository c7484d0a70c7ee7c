package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/bindery/schema"
)

// NewReflectCommand prints the reflected descriptor of a table.
func NewReflectCommand(opts *RootOptions) *cobra.Command {
	var bind string
	var model bool

	cmd := &cobra.Command{
		Use:   "reflect <table>",
		Short: "Reflect a table's schema from the live database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			table := args[0]

			var descriptor any
			if model {
				m, err := db.ReflectModel(ctx, table, bind)
				if err != nil {
					return err
				}
				descriptor = m
			} else {
				t, err := db.ReflectTable(ctx, table, bind)
				if err != nil {
					return err
				}
				descriptor = t
			}

			if opts.Format == "json" {
				data, err := schema.RenderJSON(descriptor)
				if err != nil {
					return err
				}
				cmd.OutOrStdout().Write(data)
				return nil
			}
			return printDescriptor(cmd, descriptor)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "bind key to reflect against (default bind when empty)")
	cmd.Flags().BoolVar(&model, "model", false, "synthesize a model descriptor instead of the raw table")
	return cmd
}

func printDescriptor(cmd *cobra.Command, descriptor any) error {
	switch d := descriptor.(type) {
	case *schema.Table:
		printTable(cmd, d)
	case *schema.Model:
		printTable(cmd, d.Table)
		fmt.Fprintln(cmd.OutOrStdout(), "fields:")
		fields := make([]string, 0, len(d.Fields))
		for field := range d.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-24s -> %s\n", field, d.Fields[field])
		}
	default:
		return fmt.Errorf("unsupported descriptor type: %T", descriptor)
	}
	return nil
}

func printTable(cmd *cobra.Command, t *schema.Table) {
	fmt.Fprintf(cmd.OutOrStdout(), "table %s\n", t.Name)
	for _, c := range t.Columns {
		flags := ""
		if c.PrimaryKey {
			flags += " pk"
		}
		if !c.Nullable {
			flags += " not-null"
		}
		if c.Default != nil {
			flags += " default=" + *c.Default
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s%s\n", c.Name, c.Type, flags)
	}
}
