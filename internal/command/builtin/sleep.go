package builtin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelocantos/gsh/internal/command"
)

// Sleep pauses for a duration, or until the invocation is cancelled when no
// duration is given.
type Sleep struct{}

var _ command.Command = (*Sleep)(nil)

func (s *Sleep) Name() string        { return "sleep" }
func (s *Sleep) Description() string { return "pause for a duration, or until interrupted" }

func (s *Sleep) Execute(ctx context.Context, inv *command.Invocation) (any, error) {
	if len(inv.Args) > 1 {
		return nil, fmt.Errorf("sleep: unexpected arguments: %v", inv.Args[1:])
	}
	if len(inv.Args) == 0 {
		inv.Logger.Info("waiting")
		<-ctx.Done()
		return nil, ctx.Err()
	}

	d, err := parseDuration(inv.Args[0])
	if err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// parseDuration accepts Go durations ("1.5s", "200ms") and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
