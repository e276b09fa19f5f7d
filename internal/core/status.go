package core

const (
	StatusGood     BudgetStatus = "good"
	StatusCaution  BudgetStatus = "caution"
	StatusWarning  BudgetStatus = "warning"
	StatusExceeded BudgetStatus = "exceeded"
)

// BudgetStatus is the ordinal severity of a budget's spend ratio.
type BudgetStatus string

// ClassifyBudget maps a spend percentage to a status. Cutoffs are inclusive
// on the lower bound of each band: exactly 90 is warning, not caution.
func ClassifyBudget(percentage float64) BudgetStatus {
	switch {
	case percentage >= 100:
		return StatusExceeded
	case percentage >= 90:
		return StatusWarning
	case percentage >= 75:
		return StatusCaution
	default:
		return StatusGood
	}
}

// Severity orders statuses for comparison; higher is worse.
func (s BudgetStatus) Severity() int {
	switch s {
	case StatusExceeded:
		return 3
	case StatusWarning:
		return 2
	case StatusCaution:
		return 1
	default:
		return 0
	}
}

// Percentage computes spent/limit as a percentage. A zero or negative limit
// yields 0 so a misconfigured budget never produces NaN or Inf.
func Percentage(spent, limit Money) float64 {
	if limit.Cents <= 0 {
		return 0
	}
	return float64(spent.Cents) / float64(limit.Cents) * 100
}

const (
	GoalCompleted GoalStatus = "completed"
	GoalOverdue   GoalStatus = "overdue"
	GoalUrgent    GoalStatus = "urgent"
	GoalOnTrack   GoalStatus = "on_track"
)

// GoalStatus is the derived state of a savings goal.
type GoalStatus string

// ClassifyGoal derives a goal status from its progress percentage and the
// number of days until the target date.
func ClassifyGoal(progress float64, daysRemaining int) GoalStatus {
	switch {
	case progress >= 100:
		return GoalCompleted
	case daysRemaining < 0:
		return GoalOverdue
	case daysRemaining <= 30:
		return GoalUrgent
	default:
		return GoalOnTrack
	}
}
