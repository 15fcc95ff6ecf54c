package scale

import (
	"strings"
	"testing"
)

func TestCatalogBuiltins(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	want := []struct {
		name      string
		questions int
		min, max  int
	}{
		{"AUDIT", 10, 0, 40},
		{"CAGE", 4, 0, 4},
		{"DAST-10", 10, 0, 10},
		{"GAD-7", 7, 0, 21},
		{"PHQ-9", 9, 0, 27},
	}

	defs := c.List()
	if len(defs) != len(want) {
		t.Fatalf("got %d builtins, want %d", len(defs), len(want))
	}
	for i, w := range want {
		d := defs[i]
		if d.Name != w.name {
			t.Errorf("defs[%d].Name = %q, want %q", i, d.Name, w.name)
			continue
		}
		if len(d.Questions) != w.questions {
			t.Errorf("%s: %d questions, want %d", d.Name, len(d.Questions), w.questions)
		}
		if d.MinScore() != w.min || d.MaxScore() != w.max {
			t.Errorf("%s: score range [%d,%d], want [%d,%d]",
				d.Name, d.MinScore(), d.MaxScore(), w.min, w.max)
		}
		if err := d.Validate(); err != nil {
			t.Errorf("%s: Validate: %v", d.Name, err)
		}
		for _, b := range d.Bands {
			if b.Interpretation == "" {
				t.Errorf("%s: band %q has no interpretation text", d.Name, b.Label)
			}
		}
	}
}

func TestCatalogGetCaseInsensitive(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, ok := c.Get("phq-9"); !ok {
		t.Error("lowercase lookup failed")
	}
	if _, ok := c.Get("PHQ-99"); ok {
		t.Error("unknown scale lookup succeeded")
	}
}

func TestParseAppliesDefaultOptions(t *testing.T) {
	src := `
name: TEST
default_options:
  - { label: "No", points: 0 }
  - { label: "Yes", points: 1 }
questions:
  - prompt: "first"
  - prompt: "second"
    options:
      - { label: "Never", points: 0 }
      - { label: "Often", points: 2 }
bands:
  - { min: 0, max: 1, label: "low" }
  - { min: 2, max: 3, label: "high" }
`
	def, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(def.Questions[0].Options) != 2 || def.Questions[0].Options[1].Label != "Yes" {
		t.Errorf("default options not applied: %+v", def.Questions[0].Options)
	}
	if def.Questions[1].Options[1].Points != 2 {
		t.Errorf("per-question options overridden: %+v", def.Questions[1].Options)
	}
}

func TestValidateRejectsBadBands(t *testing.T) {
	base := func() Definition {
		return Definition{
			Name: "T",
			Questions: []Question{
				{Prompt: "q1", Options: []Option{{Points: 0}, {Points: 1}}},
				{Prompt: "q2", Options: []Option{{Points: 0}, {Points: 1}}},
			},
			Bands: []SeverityBand{
				{Min: 0, Max: 0, Label: "none"},
				{Min: 1, Max: 2, Label: "some"},
			},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("well-formed definition rejected: %v", err)
	}

	gap := base()
	gap.Bands[1].Min = 2 // leaves total 1 uncovered
	if gap.Validate() == nil {
		t.Error("gap between bands not rejected")
	}

	overlap := base()
	overlap.Bands[1].Min = 0
	if overlap.Validate() == nil {
		t.Error("overlapping bands not rejected")
	}

	short := base()
	short.Bands = short.Bands[:1]
	if short.Validate() == nil {
		t.Error("bands not covering max score not rejected")
	}

	empty := base()
	empty.Questions[0].Options = nil
	if empty.Validate() == nil {
		t.Error("question without options not rejected")
	}
}
