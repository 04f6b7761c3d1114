package workflow

import (
	"context"

	"github.com/garyjia/luminate-erp/internal/domain/entity"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// BuildInvoiceStateMachine creates a machine positioned at the invoice's
// status. An approval trigger lands on FINALIZED when the invoice already
// carries both approvals, so callers record the approval before firing.
func BuildInvoiceStateMachine(inv *entity.Invoice) domainwf.StateMachine {
	bothApproved := func(ctx context.Context) bool {
		return inv.Approvals.Both()
	}

	builder := domainwf.NewBuilder()

	for _, state := range domainwf.NonTerminalStates() {
		builder.Configure(state).
			PermitIf(domainwf.TriggerApproveAccounts, domainwf.StateFinalized, bothApproved).
			Permit(domainwf.TriggerApproveAccounts, domainwf.StateApprovedAccounts).
			PermitIf(domainwf.TriggerApproveStock, domainwf.StateFinalized, bothApproved).
			Permit(domainwf.TriggerApproveStock, domainwf.StateApprovedStock).
			Permit(domainwf.TriggerReject, domainwf.StateRejected)
	}

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingApproval)

	return builder.Build(inv.Status)
}

// approvalTrigger maps an approving role to its trigger
func approvalTrigger(role entity.Role) domainwf.Trigger {
	if role == entity.RoleStock {
		return domainwf.TriggerApproveStock
	}
	return domainwf.TriggerApproveAccounts
}
