package observer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Event is an optimizer event the session responds to.
type Event int

const (
	EventStart Event = iota
	EventEnd
	EventIteration
	EventMultiResolutionIteration
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventIteration:
		return "iter"
	case EventMultiResolutionIteration:
		return "multires"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// ParseEvent maps an event name to its Event.
func ParseEvent(name string) (Event, error) {
	switch strings.ToLower(name) {
	case "start":
		return EventStart, nil
	case "end":
		return EventEnd, nil
	case "iter", "iteration":
		return EventIteration, nil
	case "multires", "multiresolution":
		return EventMultiResolutionIteration, nil
	default:
		return 0, fmt.Errorf("unknown event %q", name)
	}
}

// Dispatch routes an optimizer event to the matching callback. src is only
// consulted for EventIteration.
func (s *Session) Dispatch(ctx context.Context, ev Event, src MetricSource) error {
	switch ev {
	case EventStart:
		s.OnStart()
		return nil
	case EventEnd:
		return s.OnEnd(ctx)
	case EventIteration:
		if src == nil {
			return fmt.Errorf("iteration event without metric source")
		}
		return s.OnIteration(src)
	case EventMultiResolutionIteration:
		return s.OnResolutionChange()
	default:
		return fmt.Errorf("unsupported event %v", ev)
	}
}

// Replay reads an event log and dispatches each line to s. Lines are an event
// name optionally followed by a metric value ("iter 0.53"); blank lines and
// lines starting with '#' are skipped.
func Replay(ctx context.Context, r io.Reader, s *Session) (int, error) {
	scanner := bufio.NewScanner(r)
	lineNo, dispatched := 0, 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		ev, err := ParseEvent(fields[0])
		if err != nil {
			return dispatched, fmt.Errorf("line %d: %w", lineNo, err)
		}

		var src MetricSource
		if ev == EventIteration {
			if len(fields) < 2 {
				return dispatched, fmt.Errorf("line %d: iteration event needs a metric value", lineNo)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return dispatched, fmt.Errorf("line %d: failed to parse metric value: %w", lineNo, err)
			}
			src = MetricFunc(func() float64 { return v })
		}

		if err := s.Dispatch(ctx, ev, src); err != nil {
			return dispatched, fmt.Errorf("line %d: %w", lineNo, err)
		}
		dispatched++
	}
	if err := scanner.Err(); err != nil {
		return dispatched, fmt.Errorf("read event log: %w", err)
	}
	return dispatched, nil
}
