package distribution

import (
	"fmt"

	"github.com/akeil/stashd/internal/domain"
)

// Forecast simulates monthly distribution cycles over a snapshot and
// reports, for every box with a positive savings target, the month its
// balance first reaches the target. The simulation stops once every
// target is met, once a cycle moves nothing into any regular box, or
// after 100 cycles per snapshot box, whichever comes first. Targets
// still unmet at that point report -1.
func Forecast(mode domain.OverflowMode, budget int64, snapshot []Box) ([]TargetForecast, error) {
	if len(snapshot) == 0 || snapshot[0].Priority != domain.OverflowPriority {
		return nil, fmt.Errorf("%w: snapshot is missing the overflow moneybox", domain.ErrInconsistentDatabase)
	}

	working := make([]Box, len(snapshot))
	copy(working, snapshot)
	byID := make(map[int64]*Box, len(working))
	for i := range working {
		byID[working[i].ID] = &working[i]
	}

	reached := make(map[int64]int64)
	pending := 0
	for _, b := range working[1:] {
		if b.SavingsTarget == nil || *b.SavingsTarget <= 0 {
			continue
		}
		if b.Balance >= *b.SavingsTarget {
			reached[b.ID] = 0
		} else {
			pending++
		}
	}

	limit := int64(100 * len(snapshot))
	for month := int64(1); month <= limit && pending > 0; month++ {
		plan, err := BuildPlan(mode, budget, working)
		if err != nil {
			return nil, err
		}

		progress := false
		for _, phase := range plan.Phases {
			for _, step := range phase.Steps {
				box := byID[step.MoneyboxID]
				box.Balance += step.Amount
				if step.Amount > 0 && box.Priority != domain.OverflowPriority {
					progress = true
				}
			}
		}

		for i := range working[1:] {
			b := &working[i+1]
			if b.SavingsTarget == nil || *b.SavingsTarget <= 0 {
				continue
			}
			if _, done := reached[b.ID]; done {
				continue
			}
			if b.Balance >= *b.SavingsTarget {
				reached[b.ID] = month
				pending--
			}
		}
		if !progress {
			break
		}
	}

	forecasts := make([]TargetForecast, 0, len(snapshot))
	for _, b := range snapshot[1:] {
		if b.SavingsTarget == nil || *b.SavingsTarget <= 0 {
			continue
		}
		months, ok := reached[b.ID]
		if !ok {
			months = -1
		}
		forecasts = append(forecasts, TargetForecast{
			MoneyboxID:      b.ID,
			Name:            b.Name,
			ReachedInMonths: months,
		})
	}
	return forecasts, nil
}
