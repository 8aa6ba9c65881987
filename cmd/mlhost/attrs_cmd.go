package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mllib/binding"
)

func attrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs [class...]",
		Short: "List the attributes of object classes",
		Long:  `List every attribute with its type, default value and description. Without arguments all classes are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := binding.DefaultRegistry()
			classes := args
			if len(classes) == 0 {
				classes = registry.Classes()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, class := range classes {
				obj, err := registry.New(class, class)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s (%s)\n", class, obj.Task())
				for _, a := range obj.Attributes().All() {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.Name, a.Kind, binding.FormatValue(a.Get()), a.Help)
				}
				obj.Close()
			}
			return w.Flush()
		},
	}
}
