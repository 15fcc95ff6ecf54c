package scale

import "fmt"

// Option is one selectable answer with its point value.
type Option struct {
	Label  string `json:"label" yaml:"label"`
	Points int    `json:"points" yaml:"points"`
}

// Question is a single prompt with its option set. Most instruments share one
// option set across every question; AUDIT and DAST-10 override per question.
type Question struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []Option `json:"options" yaml:"options,omitempty"`
}

// SeverityBand maps an inclusive score range to a clinical severity label and
// the guidance text shown alongside it.
type SeverityBand struct {
	Min            int    `json:"min" yaml:"min"`
	Max            int    `json:"max" yaml:"max"`
	Label          string `json:"label" yaml:"label"`
	Interpretation string `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
}

// Definition is the static description of a standardized clinical scale.
// Loaded once at startup, never mutated.
type Definition struct {
	Name      string         `json:"name" yaml:"name"`
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	Category  string         `json:"category,omitempty" yaml:"category,omitempty"`
	Questions []Question     `json:"questions" yaml:"questions"`
	Bands     []SeverityBand `json:"bands" yaml:"bands"`
}

// MinScore is the lowest total a complete response can produce.
func (d Definition) MinScore() int {
	total := 0
	for _, q := range d.Questions {
		total += minPoints(q.Options)
	}
	return total
}

// MaxScore is the highest total a complete response can produce.
func (d Definition) MaxScore() int {
	total := 0
	for _, q := range d.Questions {
		total += maxPoints(q.Options)
	}
	return total
}

// Validate checks structural well-formedness: every question has options and
// the severity bands partition [MinScore, MaxScore] exactly, in ascending
// order, with no gaps or overlaps.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("scale: missing name")
	}
	if len(d.Questions) == 0 {
		return fmt.Errorf("scale %s: no questions", d.Name)
	}
	for i, q := range d.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("scale %s: question %d has no prompt", d.Name, i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("scale %s: question %d has no options", d.Name, i)
		}
	}
	if len(d.Bands) == 0 {
		return fmt.Errorf("scale %s: no severity bands", d.Name)
	}
	lo, hi := d.MinScore(), d.MaxScore()
	next := lo
	for i, b := range d.Bands {
		if b.Label == "" {
			return fmt.Errorf("scale %s: band %d has no label", d.Name, i)
		}
		if b.Min > b.Max {
			return fmt.Errorf("scale %s: band %q min %d > max %d", d.Name, b.Label, b.Min, b.Max)
		}
		if b.Min != next {
			return fmt.Errorf("scale %s: band %q starts at %d, want %d", d.Name, b.Label, b.Min, next)
		}
		next = b.Max + 1
	}
	if next != hi+1 {
		return fmt.Errorf("scale %s: bands end at %d, want %d", d.Name, next-1, hi)
	}
	return nil
}

func minPoints(opts []Option) int {
	if len(opts) == 0 {
		return 0
	}
	min := opts[0].Points
	for _, o := range opts[1:] {
		if o.Points < min {
			min = o.Points
		}
	}
	return min
}

func maxPoints(opts []Option) int {
	if len(opts) == 0 {
		return 0
	}
	max := opts[0].Points
	for _, o := range opts[1:] {
		if o.Points > max {
			max = o.Points
		}
	}
	return max
}
