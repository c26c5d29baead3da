package delegate

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/samrum/doorflow/model/state"
)

// allowedDoorTypes is the fixed catalog accepted by the validation step.
var allowedDoorTypes = map[string]bool{
	"SINGLE_STANDARD":     true,
	"DOUBLE_STANDARD":     true,
	"FIRE_RATED_SINGLE":   true,
	"FIRE_RATED_DOUBLE":   true,
	"SECURITY_DOOR":       true,
	"ACCESS_CONTROL_DOOR": true,
	"EMERGENCY_EXIT":      true,
}

// additionalApprovalBudget is the threshold above which a request needs an
// extra sign-off, independent of validation outcome.
const additionalApprovalBudget = 50000

// BuildingRegistry is the external location lookup the validation delegate
// consults. Calls are leaf operations bounded by the registry call timeout.
type BuildingRegistry interface {
	LocationExists(ctx context.Context, location string) (bool, error)
}

// BuildingRegistryFunc adapts a function to the BuildingRegistry interface.
type BuildingRegistryFunc func(ctx context.Context, location string) (bool, error)

func (f BuildingRegistryFunc) LocationExists(ctx context.Context, location string) (bool, error) {
	return f(ctx, location)
}

// ValidationInput is the variable slice the validation delegate reads.
type ValidationInput struct {
	DoorType  string  `json:"doorType"`
	Location  string  `json:"location"`
	Budget    float64 `json:"budget"`
	Requestor string  `json:"requestor"`
}

// Validation checks a submitted door installation request. It writes
// `valid` and, when invalid, `rejectionReason`; a budget above the
// additional-approval threshold also sets `requiresAdditionalApproval`.
type Validation struct {
	registry BuildingRegistry
}

// NewValidation creates the validation delegate. A nil registry disables
// the external location check.
func NewValidation(registry BuildingRegistry) *Validation {
	return &Validation{registry: registry}
}

// Name returns the delegate key.
func (d *Validation) Name() string { return "validateDoorRequest" }

// Input returns the typed input the registry binds.
func (d *Validation) Input() reflect.Type { return reflect.TypeOf(ValidationInput{}) }

// Execute validates the request; rules are checked in order and the first
// violation wins.
func (d *Validation) Execute(ctx context.Context, input interface{}, execCtx *Context) error {
	in, ok := input.(*ValidationInput)
	if !ok {
		return fmt.Errorf("expected %T input, got %T", &ValidationInput{}, input)
	}

	if in.Budget > additionalApprovalBudget {
		execCtx.Set("requiresAdditionalApproval", state.Bool(true))
	}

	reason, err := d.firstViolation(ctx, execCtx, in)
	if err != nil {
		return err
	}
	if reason != "" {
		execCtx.Set("valid", state.Bool(false))
		execCtx.Set("rejectionReason", state.String(reason))
		return nil
	}
	execCtx.Set("valid", state.Bool(true))
	return nil
}

func (d *Validation) firstViolation(ctx context.Context, execCtx *Context, in *ValidationInput) (string, error) {
	if strings.TrimSpace(in.DoorType) == "" {
		return "Door type is required", nil
	}
	if strings.TrimSpace(in.Location) == "" {
		return "Location is required", nil
	}
	if strings.TrimSpace(in.Requestor) == "" {
		return "Requestor is required", nil
	}
	if in.Budget <= 0 {
		return "A positive budget is required", nil
	}
	if !allowedDoorTypes[strings.ToUpper(in.DoorType)] {
		return fmt.Sprintf("Unknown door type: %s", in.DoorType), nil
	}
	if d.registry != nil {
		callCtx, cancel := execCtx.CallContext(ctx)
		defer cancel()
		exists, err := d.registry.LocationExists(callCtx, in.Location)
		if err != nil {
			return "", fmt.Errorf("building registry lookup for %q: %w", in.Location, err)
		}
		if !exists {
			return fmt.Sprintf("Unknown location: %s", in.Location), nil
		}
	}
	return "", nil
}
