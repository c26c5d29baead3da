package delegate

import (
	"context"
	"log"
	"reflect"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/model/state"
)

// Notification is the message handed to the notification port.
type Notification struct {
	Kind              string
	ProcessInstanceID string
	BusinessKey       string
	Variables         map[string]interface{}
}

// Notifier is the outbound notification port. Implementations deliver
// synchronously; the call is bounded by the registry call timeout and a
// failure aborts the automated step.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n *Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n *Notification) error { return f(ctx, n) }

// LogNotifier writes notifications to the process log; it is the default
// port when no external delivery is wired.
func LogNotifier() Notifier {
	return NotifierFunc(func(_ context.Context, n *Notification) error {
		log.Printf("notification %s: instance=%s businessKey=%s", n.Kind, n.ProcessInstanceID, n.BusinessKey)
		return nil
	})
}

// notification delivers one outcome notification and records that it was
// sent. The three built-in outcomes only differ in key and variable names.
type notification struct {
	name     string
	kind     string
	sentVar  string
	timeVar  string
	notifier Notifier
}

// NewApprovalNotification notifies stakeholders about an approved request.
func NewApprovalNotification(notifier Notifier) Delegate {
	return &notification{
		name:     "approvalNotification",
		kind:     "APPROVED",
		sentVar:  "approvalNotificationSent",
		timeVar:  "approvalTimestamp",
		notifier: notifier,
	}
}

// NewRejectionNotification notifies the requestor about a rejected request.
func NewRejectionNotification(notifier Notifier) Delegate {
	return &notification{
		name:     "rejectionNotification",
		kind:     "REJECTED",
		sentVar:  "rejectionNotificationSent",
		timeVar:  "rejectionTimestamp",
		notifier: notifier,
	}
}

// NewChangesRequestedNotification notifies the requestor that the reviewer
// asked for changes.
func NewChangesRequestedNotification(notifier Notifier) Delegate {
	return &notification{
		name:     "changesRequestedNotification",
		kind:     "CHANGES_NEEDED",
		sentVar:  "changesRequestedNotificationSent",
		timeVar:  "changesRequestedTimestamp",
		notifier: notifier,
	}
}

func (d *notification) Name() string { return d.name }

func (d *notification) Input() reflect.Type { return nil }

func (d *notification) Execute(ctx context.Context, _ interface{}, execCtx *Context) error {
	notifier := d.notifier
	if notifier == nil {
		notifier = LogNotifier()
	}
	callCtx, cancel := execCtx.CallContext(ctx)
	defer cancel()
	err := notifier.Notify(callCtx, &Notification{
		Kind:              d.kind,
		ProcessInstanceID: execCtx.InstanceID,
		BusinessKey:       execCtx.BusinessKey,
		Variables:         execCtx.Snapshot().Interface(),
	})
	if err != nil {
		return err
	}
	execCtx.Set(d.sentVar, state.Bool(true))
	execCtx.Set(d.timeVar, state.Time(clock.Now()))
	return nil
}
