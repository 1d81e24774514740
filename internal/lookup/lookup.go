// Package lookup defines what the pipeline needs from the case system.
// Page structure and navigation stay inside the implementations.
package lookup

import (
	"context"
	"errors"
	"strings"
)

// ErrCaseNotFound is returned by OpenCase when the case does not exist or
// cannot be opened.
var ErrCaseNotFound = errors.New("case not found")

// CaseHandle refers to the case currently open in a session.
type CaseHandle struct {
	CaseID string
}

// Result is either Found with at least one number, or NotFound.
type Result struct {
	numbers []string
}

// Found keeps the non-empty values of numbers in order. With none left the
// result is NotFound.
func Found(numbers ...string) Result {
	var kept []string
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	return Result{numbers: kept}
}

func NotFound() Result {
	return Result{}
}

func (r Result) IsFound() bool {
	return len(r.numbers) > 0
}

// Numbers returns a copy of the numbers, nil for NotFound.
func (r Result) Numbers() []string {
	if len(r.numbers) == 0 {
		return nil
	}
	return append([]string(nil), r.numbers...)
}

// Client looks up people within cases. One case is open at a time.
type Client interface {
	OpenCase(ctx context.Context, caseID string) (CaseHandle, error)
	// FindPersonPhone returns the phone then mobile number of the person whose
	// national ID matches once separators are stripped.
	FindPersonPhone(ctx context.Context, handle CaseHandle, nationalID string) (Result, error)
}

// Session is a Client bound to one logged-in connection.
type Session interface {
	Client
	Close() error
}

// Connector opens sessions. The harness opens a fresh one per attempt.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}
