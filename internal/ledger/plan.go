package ledger

import "budgetsync/internal/core"

// BuildPlan concatenates entry writes followed by auxiliary writes.
// Duplicate addresses are kept; the batch write applies them in order.
func BuildPlan(entryWrites, auxiliaryWrites []core.WriteInstruction) core.UpdatePlan {
	plan := make(core.UpdatePlan, 0, len(entryWrites)+len(auxiliaryWrites))
	plan = append(plan, entryWrites...)
	plan = append(plan, auxiliaryWrites...)
	return plan
}
