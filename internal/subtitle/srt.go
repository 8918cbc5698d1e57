package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cue is a single SRT subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

var timingPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT parses SRT content into cues. It tolerates missing index lines,
// CRLF endings, and trailing blank blocks. Malformed blocks are skipped
// rather than failing the whole file.
func ParseSRT(content string) []Cue {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")

	var cues []Cue
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}
		i := 0
		index := 0
		if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			index = n
			i = 1
		}
		if i >= len(lines) {
			continue
		}
		m := timingPattern.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		start := srtTime(m[1], m[2], m[3], m[4])
		end := srtTime(m[5], m[6], m[7], m[8])
		text := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if index == 0 {
			index = len(cues) + 1
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: text})
	}
	return cues
}

func srtTime(h, m, s, ms string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// ValidateSRT checks that content parses to at least one cue with sane
// timing. It guards against truncated or non-subtitle payloads slipping
// through as sidecars.
func ValidateSRT(content string) error {
	cues := ParseSRT(content)
	if len(cues) == 0 {
		return fmt.Errorf("no parsable cues")
	}
	for _, cue := range cues {
		if cue.End < cue.Start {
			return fmt.Errorf("cue %d ends before it starts", cue.Index)
		}
	}
	return nil
}

// CueCount returns the number of parsable cues in content.
func CueCount(content string) int {
	return len(ParseSRT(content))
}
