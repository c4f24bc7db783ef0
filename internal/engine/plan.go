package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kim-interface/kimm/internal/store"
	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// ErrAmbiguous indicates a Machine name that exists under more than one Model.
var ErrAmbiguous = errors.New("engine: machine name is ambiguous")

// Step is one filesystem action of a plan.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Plan is the ordered list of filesystem actions of one mutation. It is built
// only after every input has been validated.
type Plan struct {
	Entity string
	Op     string
	Steps  []Step
}

func newPlan(entity, op string) *Plan {
	return &Plan{Entity: entity, Op: op}
}

func (p *Plan) add(name string, run func(ctx context.Context) error) {
	p.Steps = append(p.Steps, Step{Name: name, Run: run})
}

// Describe lists the step names in order.
func (p *Plan) Describe() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}

// Apply runs the steps in order, checking ctx before each one, and stops at
// the first failure.
func (p *Plan) Apply(ctx context.Context) error {
	for i, s := range p.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.Name, Index: i, Completed: p.Describe()[:i], Err: err}
		}
		if err := s.Run(ctx); err != nil {
			return &StepError{Step: s.Name, Index: i, Completed: p.Describe()[:i], Err: err}
		}
	}
	return nil
}

// StepError reports which step of a multi-file mutation failed and which
// steps had already been applied.
type StepError struct {
	Step      string
	Index     int
	Completed []string
	Err       error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if len(e.Completed) == 0 {
		return fmt.Sprintf("step %d %q failed, nothing was changed: %v", e.Index+1, e.Step, e.Err)
	}
	return fmt.Sprintf("step %d %q failed after %d completed step(s): %v", e.Index+1, e.Step, len(e.Completed), e.Err)
}

// Unwrap returns the cause.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Category groups errors by how the caller should react.
type Category string

const (
	CategoryNone        Category = ""
	CategoryValidation  Category = "validation"
	CategoryNotFound    Category = "not_found"
	CategoryConsistency Category = "consistency"
	CategoryStorage     Category = "storage"
	CategoryCanceled    Category = "canceled"
	CategoryInternal    Category = "internal"
)

// Classify maps any error returned by the engine to a Category.
func Classify(err error) Category {
	var (
		ve *validate.Error
		ce *store.ConsistencyError
		se *store.StorageError
	)
	switch {
	case err == nil:
		return CategoryNone
	case errors.As(err, &ve):
		return CategoryValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, models.ErrNotFound), errors.Is(err, ErrAmbiguous):
		return CategoryNotFound
	case errors.As(err, &ce):
		return CategoryConsistency
	case errors.As(err, &se):
		return CategoryStorage
	default:
		return CategoryInternal
	}
}
