package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindline-health/psychrec/internal/scale"
)

type scoreFlags struct {
	scaleName string
	answers   string
	asJSON    bool
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a completed response set against a scale",
		Long: `Score a completed response set against a scale.

Answers are option indexes in question order, comma separated. Example:

  psychrec score --scale PHQ-9 --answers 1,1,2,1,0,1,2,1,2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(f)
		},
	}
	cmd.Flags().StringVar(&f.scaleName, "scale", "", "Scale name, e.g. PHQ-9 (required)")
	cmd.Flags().StringVar(&f.answers, "answers", "", "Comma-separated option indexes in question order (required)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Emit the result as JSON")
	_ = cmd.MarkFlagRequired("scale")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func runScore(f *scoreFlags) error {
	catalog, err := scale.NewCatalog()
	if err != nil {
		return err
	}
	def, ok := catalog.Get(f.scaleName)
	if !ok {
		return fmt.Errorf("unknown scale: %s", f.scaleName)
	}

	selected := map[int]int{}
	for i, part := range strings.Split(f.answers, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("answer %d: %q is not a number", i+1, part)
		}
		selected[i] = v
	}

	res, err := scale.Score(def, scale.Response{Selected: selected})
	if err != nil {
		var se *scale.ScoringError
		if errors.As(err, &se) && se.Kind == scale.KindIncompleteResponse {
			return fmt.Errorf("%s needs %d answers, got %d", def.Name, len(def.Questions), len(selected))
		}
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Printf("%s total: %d (%s)\n", res.Scale, res.Total, res.Severity)
	if res.Band.Interpretation != "" {
		fmt.Println(res.Band.Interpretation)
	}
	return nil
}
