package viewer

import (
	"fmt"
	"strings"
)

// SectionError is a failed section fetch. Other sections are unaffected.
type SectionError struct {
	SectionID  string
	SectionKey string
	Err        error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.SectionKey, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// GatingError is returned when a load is requested while required filters
// are unset. No fetch is issued.
type GatingError struct {
	Missing []string
}

func (e *GatingError) Error() string {
	return "required filters missing: " + strings.Join(e.Missing, ", ")
}
