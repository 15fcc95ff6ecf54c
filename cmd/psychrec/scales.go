package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mindline-health/psychrec/internal/scale"
)

func newScalesCmd() *cobra.Command {
	list := newScalesListCmd()
	cmd := &cobra.Command{
		Use:   "scales",
		Short: "Browse the built-in rating scales",
		Args:  cobra.NoArgs,
		RunE:  list.RunE, // bare "scales" lists
	}
	cmd.AddCommand(list, newScalesShowCmd())
	return cmd
}

func newScalesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available scales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scale.NewCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTITLE\tQUESTIONS\tRANGE")
			for _, def := range catalog.List() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d-%d\n",
					def.Name, def.Title, len(def.Questions), def.MinScore(), def.MaxScore())
			}
			return w.Flush()
		},
	}
}

func newScalesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print one scale's questions, options, and severity bands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := scale.NewCatalog()
			if err != nil {
				return err
			}
			def, ok := catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown scale: %s", args[0])
			}

			fmt.Printf("%s (%s)\n", def.Title, def.Name)
			if def.Category != "" {
				fmt.Printf("Category: %s\n", def.Category)
			}
			fmt.Printf("Score range: %d-%d\n\n", def.MinScore(), def.MaxScore())

			for i, q := range def.Questions {
				fmt.Printf("%2d. %s\n", i+1, q.Prompt)
				for j, opt := range q.Options {
					fmt.Printf("      [%d] %s (%d)\n", j, opt.Label, opt.Points)
				}
			}

			fmt.Println("\nSeverity bands:")
			for _, b := range def.Bands {
				fmt.Printf("  %2d-%2d  %s\n", b.Min, b.Max, b.Label)
			}
			return nil
		},
	}
}
