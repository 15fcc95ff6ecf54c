package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mindline-health/psychrec/internal/dsm5"
)

func newDSM5Cmd() *cobra.Command {
	tree := newDSM5TreeCmd()
	cmd := &cobra.Command{
		Use:   "dsm5",
		Short: "Browse the DSM-5 diagnostic hierarchy",
		Args:  cobra.NoArgs,
		RunE:  tree.RunE, // bare "dsm5" prints the tree
	}
	cmd.AddCommand(tree, newDSM5LookupCmd())
	return cmd
}

func newDSM5TreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the category > disorder > symptom hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := dsm5.NewCatalog()
			if err != nil {
				return err
			}
			for _, cat := range catalog.Categories() {
				fmt.Println(cat.Name)
				for _, dis := range cat.Disorders {
					fmt.Printf("  %s", dis.Name)
					if dis.DurationRequirement != "" {
						fmt.Printf("  (duration: %s)", dis.DurationRequirement)
					}
					fmt.Println()
					for _, g := range dis.SymptomGroups {
						fmt.Printf("    %s\n", g.Name)
						for _, s := range g.Symptoms {
							marker := " "
							if s.Required {
								marker = "*"
							}
							fmt.Printf("      %s %-4s %s\n", marker, s.Code, s.Name)
						}
					}
				}
			}
			return nil
		},
	}
}

func newDSM5LookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Resolve a symptom code to its place in the hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := dsm5.NewCatalog()
			if err != nil {
				return err
			}
			ref, ok := catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown symptom code: %s", args[0])
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Code\t%s\n", ref.Symptom.Code)
			fmt.Fprintf(w, "Symptom\t%s\n", ref.Symptom.Name)
			fmt.Fprintf(w, "Category\t%s\n", ref.Category)
			fmt.Fprintf(w, "Disorder\t%s\n", ref.Disorder)
			if ref.SymptomGroup != "" {
				fmt.Fprintf(w, "Group\t%s\n", ref.SymptomGroup)
			}
			if ref.Symptom.Criterion != "" {
				fmt.Fprintf(w, "Criterion\t%s\n", ref.Symptom.Criterion)
			}
			return w.Flush()
		},
	}
}
