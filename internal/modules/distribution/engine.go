package distribution

import (
	"fmt"

	"github.com/akeil/stashd/internal/domain"
)

// Movement descriptions recorded on the transaction rows of a cycle.
const (
	descDistribution     = "Automated savings distribution"
	descResidual         = "Automated savings residual"
	descOverflowToBudget = "Overflow balance added to savings budget"
	descFillSweep        = "Overflow balance distributed to limited moneyboxes"
	descRatioSweep       = "Overflow balance distributed by savings ratio"
)

// BuildPlan computes the movements of one distribution cycle over a
// snapshot. The snapshot must be the active moneyboxes ascending by
// priority with the overflow moneybox first. The plan never contains
// zero-amount steps and sweeps that would only move money out of the
// overflow moneybox and straight back are dropped entirely.
func BuildPlan(mode domain.OverflowMode, budget int64, snapshot []Box) (*Plan, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown overflow mode %q", domain.ErrValidation, mode)
	}
	if len(snapshot) == 0 || snapshot[0].Priority != domain.OverflowPriority {
		return nil, fmt.Errorf("%w: snapshot is missing the overflow moneybox", domain.ErrInconsistentDatabase)
	}

	a := newAllocator(snapshot)
	plan := &Plan{Mode: mode, Budget: budget, EffectiveBudget: budget}

	switch mode {
	case domain.OverflowModeCollect:
		a.collectPhase(plan, budget)

	case domain.OverflowModeAddToAmount:
		a.addPhase(plan, budget)

	case domain.OverflowModeFillUpLimited:
		a.collectPhase(plan, budget)
		a.fillPhase(plan)

	case domain.OverflowModeRatio:
		a.collectPhase(plan, budget)
		a.ratioPhase(plan)
	}

	return plan, nil
}

// allocator tracks the simulated balances while phases are planned so
// that later phases see the deposits of earlier ones.
type allocator struct {
	overflow Box
	boxes    []Box
	balances map[int64]int64
}

func newAllocator(snapshot []Box) *allocator {
	balances := make(map[int64]int64, len(snapshot))
	for _, b := range snapshot {
		balances[b.ID] = b.Balance
	}
	return &allocator{
		overflow: snapshot[0],
		boxes:    snapshot[1:],
		balances: balances,
	}
}

// collectTakes walks the boxes in priority order and allocates
// take = min(savings_amount, remaining, target gap). Returns the
// planned steps and the unallocated remainder.
func (a *allocator) collectTakes(budget int64) ([]Step, int64) {
	remaining := budget
	steps := make([]Step, 0, len(a.boxes))
	for _, m := range a.boxes {
		if remaining <= 0 {
			break
		}
		take := m.SavingsAmount
		if take > remaining {
			take = remaining
		}
		if m.SavingsTarget != nil {
			gap := *m.SavingsTarget - a.balances[m.ID]
			if gap < 0 {
				gap = 0
			}
			if take > gap {
				take = gap
			}
		}
		if take <= 0 {
			continue
		}
		steps = append(steps, Step{MoneyboxID: m.ID, Amount: take, Description: descDistribution})
		a.balances[m.ID] += take
		remaining -= take
	}
	return steps, remaining
}

// collectPhase plans the normal budget pass. The unallocated remainder
// is deposited into the overflow moneybox.
func (a *allocator) collectPhase(plan *Plan, budget int64) {
	if budget <= 0 {
		return
	}
	steps, remaining := a.collectTakes(budget)
	if remaining > 0 {
		steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: remaining, Description: descResidual})
		a.balances[a.overflow.ID] += remaining
	}
	if len(steps) > 0 {
		plan.Phases = append(plan.Phases, Phase{Name: "collect", Steps: steps})
	}
}

// addPhase plans the ADD_TO_AUTOMATED_SAVINGS_AMOUNT cycle: the
// overflow balance is withdrawn up front and joins the budget, then a
// normal collect pass runs. When no box can take anything the
// withdrawal is dropped too, its redeposit would cancel it out.
func (a *allocator) addPhase(plan *Plan, budget int64) {
	surplus := a.balances[a.overflow.ID]
	effective := budget + surplus
	plan.EffectiveBudget = effective
	if effective <= 0 {
		return
	}

	takes, remaining := a.collectTakes(effective)
	if len(takes) == 0 {
		return
	}

	steps := make([]Step, 0, len(takes)+2)
	if surplus > 0 {
		steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: -surplus, Description: descOverflowToBudget})
		a.balances[a.overflow.ID] -= surplus
	}
	steps = append(steps, takes...)
	if remaining > 0 {
		steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: remaining, Description: descResidual})
		a.balances[a.overflow.ID] += remaining
	}
	plan.Phases = append(plan.Phases, Phase{Name: "collect", Steps: steps})
}

// fillPhase plans the FILL_UP_LIMITED_MONEYBOXES sweep: the whole
// overflow balance tops up boxes with a savings target in priority
// order, ignoring their savings_amount. What the targets cannot absorb
// returns to the overflow moneybox.
func (a *allocator) fillPhase(plan *Plan) {
	sweep := a.balances[a.overflow.ID]
	if sweep <= 0 {
		return
	}

	remaining := sweep
	takes := make([]Step, 0, len(a.boxes))
	for _, m := range a.boxes {
		if remaining <= 0 {
			break
		}
		if m.SavingsTarget == nil {
			continue
		}
		gap := *m.SavingsTarget - a.balances[m.ID]
		if gap <= 0 {
			continue
		}
		take := gap
		if take > remaining {
			take = remaining
		}
		takes = append(takes, Step{MoneyboxID: m.ID, Amount: take, Description: descFillSweep})
		a.balances[m.ID] += take
		remaining -= take
	}
	if len(takes) == 0 {
		return
	}

	steps := make([]Step, 0, len(takes)+2)
	steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: -sweep, Description: descFillSweep})
	steps = append(steps, takes...)
	if remaining > 0 {
		steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: remaining, Description: descResidual})
	}
	a.balances[a.overflow.ID] = remaining
	plan.Phases = append(plan.Phases, Phase{Name: "fill_up", Steps: steps})
}

// ratioPhase plans the RATIO sweep: the whole overflow balance is
// split by each box's integer-truncated share of the summed
// savings_amount, capped by target gaps. Truncation residue stays in
// the overflow moneybox.
func (a *allocator) ratioPhase(plan *Plan) {
	sweep := a.balances[a.overflow.ID]
	if sweep <= 0 {
		return
	}

	var totalSA int64
	for _, m := range a.boxes {
		totalSA += m.SavingsAmount
	}
	if totalSA <= 0 {
		return
	}

	var allocated int64
	takes := make([]Step, 0, len(a.boxes))
	for _, m := range a.boxes {
		if m.SavingsAmount <= 0 {
			continue
		}
		ratioPct := m.SavingsAmount * 100 / totalSA
		take := sweep * ratioPct / 100
		if m.SavingsTarget != nil {
			gap := *m.SavingsTarget - a.balances[m.ID]
			if gap < 0 {
				gap = 0
			}
			if take > gap {
				take = gap
			}
		}
		if take <= 0 {
			continue
		}
		takes = append(takes, Step{MoneyboxID: m.ID, Amount: take, Description: descRatioSweep})
		a.balances[m.ID] += take
		allocated += take
	}
	if len(takes) == 0 {
		return
	}

	remaining := sweep - allocated
	steps := make([]Step, 0, len(takes)+2)
	steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: -sweep, Description: descRatioSweep})
	steps = append(steps, takes...)
	if remaining > 0 {
		steps = append(steps, Step{MoneyboxID: a.overflow.ID, Amount: remaining, Description: descResidual})
	}
	a.balances[a.overflow.ID] = remaining
	plan.Phases = append(plan.Phases, Phase{Name: "ratio", Steps: steps})
}
