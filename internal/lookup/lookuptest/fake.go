// Package lookuptest provides an in-memory case system for tests.
package lookuptest

import (
	"context"
	"fmt"
	"sync"

	"eflyt-phone-lookup/internal/lookup"
	"eflyt-phone-lookup/internal/models"
)

// Call records one FindPersonPhone invocation.
type Call struct {
	CaseID     string
	NationalID string
}

// Fake is both a Connector and the Session it hands out.
type Fake struct {
	mu sync.Mutex

	// People maps case ID -> normalized national ID -> result. A case missing
	// from the map makes OpenCase fail with lookup.ErrCaseNotFound.
	People map[string]map[string]lookup.Result
	// OpenErrors and FindErrors inject faults per case ID.
	OpenErrors map[string]error
	FindErrors map[string]error
	// ConnectErrors are returned by successive Connect calls before succeeding.
	ConnectErrors []error

	Calls    []Call
	Connects int
	Closes   int
}

func New() *Fake {
	return &Fake{
		People:     map[string]map[string]lookup.Result{},
		OpenErrors: map[string]error{},
		FindErrors: map[string]error{},
	}
}

// WithPerson registers a person on a case, creating the case if needed.
func (f *Fake) WithPerson(caseID, nationalID string, result lookup.Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.People[caseID] == nil {
		f.People[caseID] = map[string]lookup.Result{}
	}
	f.People[caseID][models.NormalizeNationalID(nationalID)] = result
	return f
}

func (f *Fake) Connect(ctx context.Context) (lookup.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connects++
	if len(f.ConnectErrors) > 0 {
		err := f.ConnectErrors[0]
		f.ConnectErrors = f.ConnectErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Fake) OpenCase(ctx context.Context, caseID string) (lookup.CaseHandle, error) {
	if err := ctx.Err(); err != nil {
		return lookup.CaseHandle{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.OpenErrors[caseID]; err != nil {
		return lookup.CaseHandle{}, err
	}
	if _, ok := f.People[caseID]; !ok {
		return lookup.CaseHandle{}, fmt.Errorf("open case %s: %w", caseID, lookup.ErrCaseNotFound)
	}
	return lookup.CaseHandle{CaseID: caseID}, nil
}

func (f *Fake) FindPersonPhone(ctx context.Context, handle lookup.CaseHandle, nationalID string) (lookup.Result, error) {
	if err := ctx.Err(); err != nil {
		return lookup.Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{CaseID: handle.CaseID, NationalID: nationalID})
	if err := f.FindErrors[handle.CaseID]; err != nil {
		return lookup.Result{}, err
	}
	result, ok := f.People[handle.CaseID][models.NormalizeNationalID(nationalID)]
	if !ok {
		return lookup.NotFound(), nil
	}
	return result, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closes++
	return nil
}
