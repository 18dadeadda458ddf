package pipeline

import "github.com/marcelocantos/gsh/internal/parser"

// Stage is one command invocation within a unit: the words of its name and
// arguments, not yet expanded or resolved.
type Stage struct {
	Words []parser.Word
}

// NewStage returns a stage whose words are taken verbatim from argv.
func NewStage(argv ...string) Stage {
	words := make([]parser.Word, len(argv))
	for i, a := range argv {
		words[i] = parser.Word{Kind: parser.Opaque, Value: a, Token: a, Pos: -1}
	}
	return Stage{Words: words}
}

// Name returns the raw command name, or "" for an empty stage.
func (s Stage) Name() string {
	if len(s.Words) == 0 {
		return ""
	}
	return s.Words[0].Value
}

// Argv returns the raw decoded values of every word.
func (s Stage) Argv() []string {
	argv := make([]string, len(s.Words))
	for i, w := range s.Words {
		argv[i] = w.Value
	}
	return argv
}

// Unit is a single statement or a pipeline. Stage i's standard output feeds
// stage i+1's standard input.
type Unit struct {
	Stages []Stage
}

// IsPipeline reports whether the unit chains two or more stages.
func (u Unit) IsPipeline() bool { return len(u.Stages) > 1 }

// Plan is an executable command line: units run one after another.
type Plan struct {
	Units []Unit
}

// Names returns the raw command name of every stage, in order.
func (p *Plan) Names() []string {
	var names []string
	for _, u := range p.Units {
		for _, s := range u.Stages {
			names = append(names, s.Name())
		}
	}
	return names
}
