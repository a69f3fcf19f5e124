// Package subtitle parses SRT transcripts into timed cues.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cue is one timed subtitle entry
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns End - Start
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

var (
	// timingPattern matches "00:00:01,000 --> 00:00:03,500" with either "," or "." before the milliseconds
	timingPattern = regexp.MustCompile(`^(\d+:\d{2}:\d{2}[,.]\d{1,3})\s*-->\s*(\d+:\d{2}:\d{2}[,.]\d{1,3})`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// ParseTimestamp parses "HH:MM:SS,mmm" or "HH:MM:SS.mmm"
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.Replace(s, ",", ".", 1)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
	}

	secParts := strings.SplitN(parts[2], ".", 2)
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}
	millis := 0
	if len(secParts) == 2 {
		ms := secParts[1]
		// Pad or truncate to 3 digits
		if len(ms) > 3 {
			ms = ms[:3]
		}
		for len(ms) < 3 {
			ms += "0"
		}
		if millis, err = strconv.Atoi(ms); err != nil {
			return 0, fmt.Errorf("invalid milliseconds in %q: %w", s, err)
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Parse reads SRT cues from r. Multi-line text is joined with a space,
// markup tags are removed and cues left without text are skipped.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cues    []Cue
		current *Cue
		lines   []string
		lineNo  int
		pending = -1
	)

	flush := func() {
		if current == nil {
			return
		}
		text := strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
		if text != "" {
			current.Text = text
			cues = append(cues, *current)
		}
		current = nil
		lines = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}

		if line == "" {
			flush()
			pending = -1
			continue
		}

		if m := timingPattern.FindStringSubmatch(line); m != nil {
			flush()
			start, err := ParseTimestamp(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			end, err := ParseTimestamp(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if end < start {
				return nil, fmt.Errorf("line %d: cue ends before it starts", lineNo)
			}
			index := pending
			if index < 0 {
				index = len(cues) + 1
			}
			current = &Cue{Index: index, Start: start, End: end}
			pending = -1
			continue
		}

		if current == nil {
			// Sequence number preceding a timing line
			if n, err := strconv.Atoi(line); err == nil {
				pending = n
			}
			continue
		}

		lines = append(lines, tagPattern.ReplaceAllString(line, ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return cues, nil
}

// FormatClock renders d as zero-padded HH:MM:SS, dropping fractions of a second
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
