// Package doorflow orchestrates human-in-the-loop approval workflows. A
// process definition is a small directed graph of automated steps, human
// tasks, exclusive gateways and end steps; the engine drives each instance
// synchronously until it suspends on a human task or completes, at which
// point an immutable record moves to the history archive.
//
// The package ships with a door installation approval process: a request is
// validated automatically, reviewed by a human and, once approved, turned
// into a prioritised work order. The same machinery runs any definition
// registered through WithDefinitions.
//
// Basic usage:
//
//	srv, err := doorflow.New()
//	if err != nil { ... }
//	started, err := srv.StartProcess(ctx, &doorflow.StartRequest{
//		BusinessKey: "REQ-1001",
//		Variables: map[string]interface{}{
//			"doorType":   "SECURITY_DOOR",
//			"location":   "Building A",
//			"budget":     12000,
//			"requestor":  "facilities",
//			"reviewerId": "reviewer1",
//		},
//	})
//	...
//	_, err = srv.CompleteTask(ctx, started.CurrentTaskID, map[string]interface{}{
//		"approvalDecision": "APPROVED",
//	})
package doorflow
