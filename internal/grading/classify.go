package grading

import "fmt"

// AggWorstMetric is the only supported aggregation method. Any other tag in a
// template is a configuration error, never silently defaulted.
const AggWorstMetric = "worst_metric"

// Direction is a closed variant over threshold orientations. An unknown
// direction string fails at parse time, not at grading time.
type Direction int

const (
	// HigherIsBetter grades A when value >= A-cutoff, B when >= B-cutoff.
	HigherIsBetter Direction = iota
	// LowerIsBetter grades A when value <= A-cutoff, B when <= B-cutoff.
	LowerIsBetter
)

// String returns the wire form of the direction.
func (d Direction) String() string {
	switch d {
	case HigherIsBetter:
		return "higher_is_better"
	case LowerIsBetter:
		return "lower_is_better"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection converts a wire-form direction string.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "higher_is_better":
		return HigherIsBetter, nil
	case "lower_is_better":
		return LowerIsBetter, nil
	default:
		return 0, &ConfigError{Field: "direction", Value: s}
	}
}

// Threshold is one metric's grading rule.
type Threshold struct {
	Direction Direction
	ACutoff   float64
	BCutoff   float64
}

// Grade is a shot quality class. C dominates B dominates A.
type Grade int

const (
	GradeA Grade = iota
	GradeB
	GradeC
)

// String returns "A", "B", or "C".
func (g Grade) String() string {
	switch g {
	case GradeA:
		return "A"
	case GradeB:
		return "B"
	case GradeC:
		return "C"
	default:
		return fmt.Sprintf("Grade(%d)", int(g))
	}
}

// ConfigError reports an unrecognized aggregation method or direction.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Field, e.Value)
}

// Classify grades one shot against a template's metric rules using
// worst-metric aggregation.
//
// Metrics in the shot not covered by the rules are ignored. Rules whose
// metric is absent from the shot grade C. The overall grade is the worst
// individual metric grade.
func Classify(shot map[string]float64, metrics map[string]Threshold, aggregation string) (Grade, error) {
	if aggregation != AggWorstMetric {
		return GradeC, &ConfigError{Field: "aggregation", Value: aggregation}
	}

	worst := GradeA
	for name, rule := range metrics {
		value, ok := shot[name]
		if !ok {
			worst = GradeC
			continue
		}
		if g := gradeMetric(value, rule); g > worst {
			worst = g
		}
	}
	return worst, nil
}

// gradeMetric grades a single metric value against its threshold rule.
func gradeMetric(value float64, rule Threshold) Grade {
	switch rule.Direction {
	case HigherIsBetter:
		if value >= rule.ACutoff {
			return GradeA
		}
		if value >= rule.BCutoff {
			return GradeB
		}
		return GradeC
	case LowerIsBetter:
		if value <= rule.ACutoff {
			return GradeA
		}
		if value <= rule.BCutoff {
			return GradeB
		}
		return GradeC
	default:
		// Unreachable for values built through ParseDirection.
		return GradeC
	}
}

// Counts tallies grades across a batch of shots.
type Counts struct {
	A int
	B int
	C int
}

// Total returns the number of graded shots.
func (c Counts) Total() int {
	return c.A + c.B + c.C
}

// Add records one grade.
func (c *Counts) Add(g Grade) {
	switch g {
	case GradeA:
		c.A++
	case GradeB:
		c.B++
	default:
		c.C++
	}
}
