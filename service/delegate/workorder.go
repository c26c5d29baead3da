package delegate

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/internal/idgen"
	"github.com/samrum/doorflow/model/state"
)

// workOrderLayout is the timestamp component of a work-order number,
// WO-yyyyMMdd-HHmmss-XXXX.
const workOrderLayout = "20060102-150405"

// escalationBudget is the budget above which priority moves one level up.
const escalationBudget = 25000

// WorkOrderInput is the variable slice the work-order delegate reads.
type WorkOrderInput struct {
	DoorType string  `json:"doorType"`
	Location string  `json:"location"`
	Budget   float64 `json:"budget"`
	Urgency  string  `json:"urgency"`
}

// WorkOrder creates a maintenance work order for an approved request. It
// writes `workOrderNumber`, `workOrderCreated` and `assignedPriority`.
type WorkOrder struct {
	issued sync.Map
}

// NewWorkOrder creates the work-order delegate.
func NewWorkOrder() *WorkOrder { return &WorkOrder{} }

// Name returns the delegate key.
func (d *WorkOrder) Name() string { return "createWorkOrder" }

// Input returns the typed input the registry binds.
func (d *WorkOrder) Input() reflect.Type { return reflect.TypeOf(WorkOrderInput{}) }

// Execute generates the work-order number and derives its priority.
func (d *WorkOrder) Execute(_ context.Context, input interface{}, execCtx *Context) error {
	in, ok := input.(*WorkOrderInput)
	if !ok {
		return fmt.Errorf("expected %T input, got %T", &WorkOrderInput{}, input)
	}
	execCtx.Set("workOrderNumber", state.String(d.nextNumber()))
	execCtx.Set("workOrderCreated", state.Time(clock.Now()))
	execCtx.Set("assignedPriority", state.String(Priority(in.Urgency, in.Budget)))
	return nil
}

// nextNumber returns a work-order number that has never been issued by this
// delegate. The random suffix keeps numbers unique across restarts with
// overwhelming probability; the issued set makes them unique within one.
func (d *WorkOrder) nextNumber() string {
	for {
		number := "WO-" + clock.Now().Format(workOrderLayout) + "-" + idgen.Suffix(4)
		if _, dup := d.issued.LoadOrStore(number, true); !dup {
			return number
		}
	}
}

// Priority derives the work-order priority from urgency and budget. An
// unset urgency counts as MEDIUM; a budget above the escalation threshold
// moves the priority one level up.
func Priority(urgency string, budget float64) string {
	highBudget := budget > escalationBudget
	switch strings.ToUpper(strings.TrimSpace(urgency)) {
	case "CRITICAL":
		return "P1_CRITICAL"
	case "HIGH":
		if highBudget {
			return "P1_CRITICAL"
		}
		return "P2_HIGH"
	case "MEDIUM", "":
		if highBudget {
			return "P2_HIGH"
		}
		return "P3_MEDIUM"
	case "LOW":
		if highBudget {
			return "P3_MEDIUM"
		}
		return "P4_LOW"
	default:
		return "P3_MEDIUM"
	}
}
