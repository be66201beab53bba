// Package validator checks comic payloads returned by the remote archive
// before they are persisted, and reports per-field problems.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
)

const (
	maxTitleLength      = 1024
	maxTranscriptLength = 1 << 19
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateComic checks that c is a plausible answer to a request for comic
// requested. A requested value of 0 (latest) accepts any positive number.
func ValidateComic(requested int, c *comic.Comic) error {
	errs := make(map[string]string)

	switch {
	case c.Num <= 0:
		errs["num"] = fmt.Sprintf("num must be positive, got %d", c.Num)
	case requested != 0 && c.Num != requested:
		errs["num"] = fmt.Sprintf("expected comic %d, got %d", requested, c.Num)
	}
	if len(c.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(c.Transcript) > maxTranscriptLength {
		errs["transcript"] = fmt.Sprintf("transcript must be at most %d characters", maxTranscriptLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
