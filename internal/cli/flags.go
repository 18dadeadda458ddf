package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Flags are the launcher options.
type Flags struct {
	Command     string
	Interactive bool
	ConfigPath  string
	Defines     []string
	Debug       bool
	Verbose     bool
	MCP         bool
	Version     bool
	Help        bool

	// Args are the operands after the flags.
	Args []string

	set *pflag.FlagSet
}

// ParseFlags parses the launcher arguments, not including the program name.
// Flags stop at the first operand so that a command's own flags pass
// through untouched.
func ParseFlags(args []string, stderr io.Writer) (*Flags, error) {
	f := &Flags{}
	fs := pflag.NewFlagSet("gsh", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {}

	fs.StringVarP(&f.Command, "command", "c", "", "execute `line` and exit")
	fs.BoolVarP(&f.Interactive, "interactive", "i", false, "run the interactive console after any command")
	fs.StringVar(&f.ConfigPath, "config", "", "read configuration from `file` (.yaml or .toml)")
	fs.StringArrayVarP(&f.Defines, "define", "D", nil, "define root variable `name=value`")
	fs.BoolVar(&f.Debug, "debug", false, "log at debug level")
	fs.BoolVar(&f.Verbose, "verbose", false, "log at info level")
	fs.BoolVar(&f.MCP, "mcp", false, "serve the shell as an MCP tool on stdio")
	fs.BoolVar(&f.Version, "version", false, "show version")
	fs.BoolVarP(&f.Help, "help", "h", false, "show this help")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()
	f.set = fs
	return f, nil
}

// LogLevel returns the level selected by --debug or --verbose, or def.
func (f *Flags) LogLevel(def string) string {
	switch {
	case f.Debug:
		return "debug"
	case f.Verbose:
		return "info"
	default:
		return def
	}
}

// ParseDefine splits a --define argument. A bare name is defined as "true".
func ParseDefine(s string) (name, value string) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return s, "true"
	}
	return name, value
}

// PrintUsage writes the launcher usage text.
func (f *Flags) PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "gsh: an extensible command shell")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  gsh                               interactive console")
	fmt.Fprintln(w, "  gsh <command> [args...]           run one command with verbatim args")
	fmt.Fprintln(w, "  gsh -c '<line>'                   run a command line")
	fmt.Fprintln(w, "  gsh audit <verify|tail [n]|show <seq>>  audit log operations")
	fmt.Fprintln(w, "  gsh --mcp                         serve over MCP stdio")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	if f.set != nil {
		fmt.Fprint(w, f.set.FlagUsages())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "syntax:")
	fmt.Fprintln(w, "  ;  separates statements (\\; is literal)")
	fmt.Fprintln(w, "  |  pipes standard output into the next statement")
	fmt.Fprintln(w, "  #  starts a comment")
	fmt.Fprintln(w, "  \"...\" interpolates $name and ${name}, '...' is taken verbatim")
}
