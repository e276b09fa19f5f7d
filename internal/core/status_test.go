package core

import "testing"

func TestClassifyBudget(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		want       BudgetStatus
	}{
		{"zero", 0, StatusGood},
		{"just below caution", 74.9, StatusGood},
		{"caution lower bound", 75.0, StatusCaution},
		{"just below warning", 89.9, StatusCaution},
		{"warning lower bound", 90.0, StatusWarning},
		{"just below exceeded", 99.9, StatusWarning},
		{"exceeded lower bound", 100.0, StatusExceeded},
		{"way over", 250.0, StatusExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBudget(tt.percentage); got != tt.want {
				t.Errorf("ClassifyBudget(%v) = %v, want %v", tt.percentage, got, tt.want)
			}
		})
	}
}

func TestClassifyBudgetMonotonic(t *testing.T) {
	prev := -1
	for p := 0.0; p <= 200; p += 0.1 {
		sev := ClassifyBudget(p).Severity()
		if sev < prev {
			t.Fatalf("severity decreased at %.1f%%: %d -> %d", p, prev, sev)
		}
		prev = sev
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		spent int64
		limit int64
		want  float64
	}{
		{"zero limit guard", 5000, 0, 0},
		{"negative limit guard", 5000, -100, 0},
		{"no spend", 0, 100000, 0},
		{"96 percent", 96000, 100000, 96.0},
		{"over limit", 150000, 100000, 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(Money{Cents: tt.spent}, Money{Cents: tt.limit})
			if got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.spent, tt.limit, got, tt.want)
			}
		})
	}
}

func TestClassifyGoal(t *testing.T) {
	tests := []struct {
		name          string
		progress      float64
		daysRemaining int
		want          GoalStatus
	}{
		{"completed", 100, 90, GoalCompleted},
		{"overdue", 40, -1, GoalOverdue},
		{"urgent", 40, 30, GoalUrgent},
		{"on track", 40, 120, GoalOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyGoal(tt.progress, tt.daysRemaining); got != tt.want {
				t.Errorf("ClassifyGoal(%v, %d) = %v, want %v", tt.progress, tt.daysRemaining, got, tt.want)
			}
		})
	}
}
