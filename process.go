package doorflow

import (
	"github.com/samrum/doorflow/model"
)

// DoorProcessKey identifies the built-in door installation process.
const DoorProcessKey = "doorInstallationProcess"

// DoorProcess builds the built-in door installation definition: automated
// validation, a review task for valid requests and outcome-specific
// notifications, with an approved request producing a work order.
func DoorProcess() *model.Definition {
	return model.NewDefinition(DoorProcessKey).
		WithName("Door Installation Approval").
		WithStart("validateRequest").
		AddAutomated("validateRequest", "validateDoorRequest").
		AddGateway("validationGateway", "reviewRequest",
			&model.Branch{When: `${valid == false}`, To: "rejectionNotification"},
		).
		AddHumanTask("reviewRequest", "Review door installation request", "${reviewerId}").
		AddGateway("decisionGateway", "rejectionNotification",
			&model.Branch{When: `${approvalDecision == "APPROVED"}`, To: "approvalNotification"},
			&model.Branch{When: `${approvalDecision == "CHANGES_NEEDED"}`, To: "changesRequestedNotification"},
		).
		AddAutomated("approvalNotification", "approvalNotification").
		AddAutomated("createWorkOrder", "createWorkOrder").
		AddAutomated("rejectionNotification", "rejectionNotification").
		AddAutomated("changesRequestedNotification", "changesRequestedNotification").
		AddEnd("endApproved").
		AddEnd("endRejected").
		AddEnd("endChangesRequested").
		AddTransition("validateRequest", "validationGateway").
		AddTransition("reviewRequest", "decisionGateway").
		AddTransition("approvalNotification", "createWorkOrder").
		AddTransition("createWorkOrder", "endApproved").
		AddTransition("rejectionNotification", "endRejected").
		AddTransition("changesRequestedNotification", "endChangesRequested")
}
