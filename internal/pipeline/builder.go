package pipeline

import (
	"errors"

	"github.com/marcelocantos/gsh/internal/parser"
)

// ErrDanglingPipe is returned by Build when the last statement is piped into
// nothing.
var ErrDanglingPipe = errors.New("pipe has no receiving command")

// Build groups the statements of line into units. It performs no expansion,
// resolution or I/O.
func Build(line *parser.Line) (*Plan, error) {
	plan := &Plan{}
	if line == nil {
		return plan, nil
	}

	var cur Unit
	for _, st := range line.Statements {
		if len(st.Words) == 0 {
			continue
		}
		cur.Stages = append(cur.Stages, Stage{Words: st.Words})
		if !st.Piped {
			plan.Units = append(plan.Units, cur)
			cur = Unit{}
		}
	}
	if len(cur.Stages) > 0 {
		return nil, ErrDanglingPipe
	}
	return plan, nil
}

// FromArgs returns a plan of one single-stage unit running argv verbatim.
func FromArgs(argv ...string) *Plan {
	return &Plan{Units: []Unit{{Stages: []Stage{NewStage(argv...)}}}}
}

// FromPipeline returns a plan of one unit chaining each argument vector.
func FromPipeline(argvs ...[]string) *Plan {
	u := Unit{Stages: make([]Stage, len(argvs))}
	for i, argv := range argvs {
		u.Stages[i] = NewStage(argv...)
	}
	return &Plan{Units: []Unit{u}}
}
