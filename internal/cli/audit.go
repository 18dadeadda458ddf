package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/marcelocantos/gsh/internal/audit"
)

const auditUsage = "usage: gsh audit <verify|tail [n]|show <seq>>"

// RunAudit handles the gsh audit subcommand.
func RunAudit(w io.Writer, logPath string, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(w, auditUsage)
		return ExitFailure
	}

	switch args[0] {
	case "verify":
		if err := audit.Verify(logPath); err != nil {
			fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
			return ExitFailure
		}
		fmt.Fprintln(w, "audit log integrity verified")
		return ExitOK

	case "tail":
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 0 {
				fmt.Fprintf(w, "gsh audit: invalid count %q\n", args[1])
				return ExitFailure
			}
			n = v
		}
		entries, err := audit.Tail(logPath, n)
		if err != nil {
			fmt.Fprintf(w, "gsh audit: %v\n", err)
			return ExitFailure
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "no audit entries")
			return ExitOK
		}
		for _, e := range entries {
			printSummary(w, e)
		}
		return ExitOK

	case "show":
		if len(args) != 2 {
			fmt.Fprintln(w, auditUsage)
			return ExitFailure
		}
		seq, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(w, "gsh audit: invalid sequence number %q\n", args[1])
			return ExitFailure
		}
		entries, err := audit.Tail(logPath, math.MaxInt)
		if err != nil {
			fmt.Fprintf(w, "gsh audit: %v\n", err)
			return ExitFailure
		}
		for _, e := range entries {
			if e.Seq == seq {
				data, _ := json.MarshalIndent(e, "", "  ")
				fmt.Fprintf(w, "%s\n", data)
				return ExitOK
			}
		}
		fmt.Fprintf(w, "gsh audit: no entry %d\n", seq)
		return ExitFailure

	default:
		fmt.Fprintf(w, "gsh audit: unknown subcommand %q\n", args[0])
		return ExitFailure
	}
}

// printSummary writes one line per entry: sequence, time, outcome, exit
// code, short invocation id and the line as typed. Failures add the error
// on a second, indented line.
func printSummary(w io.Writer, e audit.Entry) {
	id := e.Invocation
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(w, "%6d  %s  %-8s %3d  %-8s  %s\n",
		e.Seq, e.Time.Local().Format("2006-01-02 15:04:05"), e.Outcome, e.ExitCode, id, e.Line)
	if e.Error != "" {
		fmt.Fprintf(w, "        error: %s\n", e.Error)
	}
}
