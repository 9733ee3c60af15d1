package updater

import (
	"time"

	"github.com/hashicorp/go-multierror"
)

// Status is the outcome of one language in a run
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// LanguageResult summarises one language
type LanguageResult struct {
	Language string
	Status   Status
	Fetched  int
	Added    int
	Skipped  int // new sermons that could not be mirrored
	Err      error
}

// Report summarises a run
type Report struct {
	Languages []LanguageResult
	Total     int
	Added     int
	Written   bool
	Duration  time.Duration
}

// AllFailed is true when no language could be fetched; the run should be
// reported as broken to the scheduler
func (r *Report) AllFailed() bool {
	for _, l := range r.Languages {
		if l.Status == StatusOK {
			return false
		}
	}
	return true
}

// Failed lists the languages that could not be fetched
func (r *Report) Failed() []string {
	var out []string
	for _, l := range r.Languages {
		if l.Status == StatusFailed {
			out = append(out, l.Language)
		}
	}
	return out
}

// Result returns the entry of a language
func (r *Report) Result(language string) (LanguageResult, bool) {
	for _, l := range r.Languages {
		if l.Language == language {
			return l, true
		}
	}
	return LanguageResult{}, false
}

// Err combines the per-language errors, nil when every language succeeded
func (r *Report) Err() error {
	var result *multierror.Error
	for _, l := range r.Languages {
		if l.Err != nil {
			result = multierror.Append(result, l.Err)
		}
	}
	return result.ErrorOrNil()
}
