package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var timestampRe = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,9}))?\]$`)

var errBadClock = fmt.Errorf("%w: clock value out of range", ErrMalformedTimestamp)

// Line is a tokenized combat log line.
type Line struct {
	Number    int   // 1-based position in the log
	Timestamp int64 // millis since the start of the day
	Tokens    []string
}

// Tokenize splits raw on single spaces and converts the leading timestamp.
// ok is false for lines with fewer than two tokens; those are not events and
// their timestamp is never inspected.
func Tokenize(number int, raw string) (line Line, ok bool, err error) {
	tokens := split(raw)
	if len(tokens) < minTokens {
		return Line{}, false, nil
	}
	ts, err := ParseTimestamp(tokens[idxTimestamp])
	if err != nil {
		return Line{}, false, &TimestampError{Line: number, Token: tokens[idxTimestamp]}
	}
	return Line{Number: number, Timestamp: ts, Tokens: tokens}, true, nil
}

// split does not collapse repeated separators, but drops trailing empty
// fields and a trailing carriage return.
func split(raw string) []string {
	raw = strings.TrimSuffix(raw, "\r")
	tokens := strings.Split(raw, " ")
	end := len(tokens)
	for end > 0 && tokens[end-1] == "" {
		end--
	}
	return tokens[:end]
}

// ParseTimestamp converts "[HH:MM:SS]" or "[HH:MM:SS.fff]" into milliseconds
// since the start of the day. Fractions longer than three digits are
// truncated to millisecond precision.
func ParseTimestamp(token string) (int64, error) {
	m := timestampRe.FindStringSubmatch(token)
	if m == nil {
		return 0, ErrMalformedTimestamp
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	mins, _ := strconv.ParseInt(m[2], 10, 64)
	sec, _ := strconv.ParseInt(m[3], 10, 64)
	if h > 23 || mins > 59 || sec > 59 {
		return 0, errBadClock
	}
	var frac int64
	if f := m[4]; f != "" {
		if len(f) > 3 {
			f = f[:3]
		}
		f += strings.Repeat("0", 3-len(f))
		frac, _ = strconv.ParseInt(f, 10, 64)
	}
	return h*3_600_000 + mins*60_000 + sec*1_000 + frac, nil
}
