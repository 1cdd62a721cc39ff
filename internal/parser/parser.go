package parser

import (
	"strings"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// Result is the outcome of parsing a whole combat log.
type Result struct {
	Events  []event.Event
	Lines   int // lines read
	Skipped int // lines that were not one of the recognised events
}

// ParseLine turns one raw line into an event. ok is false when the line is
// not a recognised event; err is non-nil only for a malformed timestamp.
// The returned event has no MatchID.
func ParseLine(number int, raw string) (ev event.Event, ok bool, err error) {
	line, ok, err := Tokenize(number, raw)
	if err != nil || !ok {
		return event.Event{}, false, err
	}
	kind, actor, ok := Classify(line.Tokens)
	if !ok {
		return event.Event{}, false, nil
	}
	payload, ok := Extract(kind, line.Tokens)
	if !ok {
		return event.Event{}, false, nil
	}
	return event.Event{
		Timestamp: line.Timestamp,
		Actor:     actor,
		Payload:   payload,
	}, true, nil
}

// ParseLog parses every line of raw in order. It stops at the first
// malformed timestamp and returns no events in that case.
func ParseLog(raw string) (*Result, error) {
	lines := strings.Split(raw, "\n")
	res := &Result{Events: make([]event.Event, 0, len(lines)/2)}
	for i, l := range lines {
		res.Lines++
		ev, ok, err := ParseLine(i+1, l)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}
