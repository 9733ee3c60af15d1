package feed

import "fmt"

// FetchError means the upstream listing could not be retrieved
type FetchError struct {
	Language string
	URL      string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s (%s): unexpected status code %d", e.Language, e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Language, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError means the listing was retrieved but no sermon could be extracted from it.
// It usually indicates markup drift and recurs until the extractor is fixed.
type ParseError struct {
	Language string
	URL      string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s (%s): %s", e.Language, e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
