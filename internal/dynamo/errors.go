package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation and fitting operations.
var (
	// ErrIntegrationFailure indicates the adaptive integrator could not advance.
	ErrIntegrationFailure = errors.New("dynamo: integration failure")

	// ErrInvalidState indicates a state vector with invalid values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrEventNotFound indicates the ground crossing never happened within the frame budget.
	ErrEventNotFound = errors.New("dynamo: ground crossing not found")

	// ErrOptimizationDivergence indicates the optimizer hit its iteration cap.
	ErrOptimizationDivergence = errors.New("dynamo: optimizer did not converge")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// IntegrationError carries the integrator position at the point of failure.
// It matches both ErrIntegrationFailure and the wrapped cause.
type IntegrationError struct {
	Time  float64
	Step  float64
	State State
	Err   error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%v at t=%.6g (h=%.3g): %v", ErrIntegrationFailure, e.Time, e.Step, e.Err)
}

func (e *IntegrationError) Unwrap() []error {
	return []error{ErrIntegrationFailure, e.Err}
}

// Canceled wraps a context error so callers can match ErrContextCanceled.
func Canceled(err error) error {
	return fmt.Errorf("%w: %w", ErrContextCanceled, err)
}
