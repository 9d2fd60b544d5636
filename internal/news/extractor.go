package news

import (
	"context"
	"net/http"
)

// Status is the outcome of one extraction stage.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Result is what an extractor hands back. Extractors never return errors;
// a failed fetch or parse is reported here with Status == StatusFailed.
type Result struct {
	Source string
	Items  []*News
	Status Status
	Err    error
}

// Collected wraps items as StatusOK, or StatusEmpty when there are none.
func Collected(source string, items []*News) Result {
	if len(items) == 0 {
		return Result{Source: source, Status: StatusEmpty}
	}
	return Result{Source: source, Items: items, Status: StatusOK}
}

func Failure(source string, err error) Result {
	return Result{Source: source, Status: StatusFailed, Err: err}
}

// Extractor fetches and parses one source. The client is shared and owned
// by the caller; implementations must not close it.
type Extractor interface {
	Source() *Source
	Extract(ctx context.Context, client *http.Client, term string) Result
}
