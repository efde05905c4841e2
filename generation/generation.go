// Package generation wraps the LLM completion services the answer pipeline
// calls. One synchronous request, one response; streaming is not needed.
package generation

import (
	"context"
	"fmt"
)

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ServiceError reports a failed generation call. Status carries the HTTP
// status when the service answered with a non-success code and is zero on
// transport failure.
type ServiceError struct {
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation service returned status %d", e.Status)
	}
	if e.Err != nil {
		return "generation service call failed: " + e.Err.Error()
	}
	return "generation service call failed"
}

func (e *ServiceError) Unwrap() error { return e.Err }
