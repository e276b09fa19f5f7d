package core

import (
	"errors"
	"strings"
	"time"
)

const (
	NotificationBudgetAlert   NotificationType = "budget_alert"
	NotificationMonthlyReport NotificationType = "monthly_report"
	NotificationCustom        NotificationType = "custom"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type (
	NotificationType string

	Priority string

	Money struct {
		Cents int64
	}

	// Category groups expenses. Each user owns their own set; the default
	// Brazilian categories are seeded on first access.
	Category struct {
		ID        string `json:"id"`
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		Icon      string `json:"icon,omitempty"`
		Color     string `json:"color,omitempty"`
		IsDefault bool   `json:"is_default"`
	}

	// Expense is a single spend record. Date is a civil date in the
	// reporting timezone, formatted YYYY-MM-DD.
	Expense struct {
		ID                string    `json:"id"`
		UserID            string    `json:"user_id"`
		CategoryID        string    `json:"category_id"`
		Description       string    `json:"description,omitempty"`
		Amount            Money     `json:"amount"`
		Date              string    `json:"date"`
		HouseholdMemberID string    `json:"household_member_id,omitempty"`
		Notes             string    `json:"notes,omitempty"`
		CreatedAt         time.Time `json:"created_at"`
		UpdatedAt         time.Time `json:"updated_at"`
	}

	// Budget caps spending for one (user, category, month) triple.
	// Spent, Percentage, Status and LastChecked are cache fields written
	// only by the budget evaluator.
	Budget struct {
		ID          string       `json:"id"`
		UserID      string       `json:"user_id"`
		CategoryID  string       `json:"category_id"`
		Month       string       `json:"month"` // YYYY-MM
		Limit       Money        `json:"limit"`
		Spent       Money        `json:"spent"`
		Percentage  float64      `json:"percentage"`
		Status      BudgetStatus `json:"status"`
		LastChecked time.Time    `json:"last_checked"`
	}

	Notification struct {
		ID        string           `json:"id"`
		UserID    string           `json:"user_id"`
		Type      NotificationType `json:"type"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		Priority  Priority         `json:"priority"`
		RelatedID string           `json:"related_id,omitempty"`
		IsRead    bool             `json:"is_read"`
		ReadAt    time.Time        `json:"read_at"`
		CreatedAt time.Time        `json:"created_at"`
	}

	SavingsGoal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"target_amount"`
		CurrentAmount Money     `json:"current_amount"`
		TargetDate    string    `json:"target_date"` // YYYY-MM-DD
		Description   string    `json:"description,omitempty"`
		IsCompleted   bool      `json:"is_completed"`
		CompletedAt   time.Time `json:"completed_at"`
	}

	ShoppingItem struct {
		Name        string  `json:"name"`
		Quantity    float64 `json:"quantity,omitempty"`
		Unit        string  `json:"unit,omitempty"`
		PriceCents  int64   `json:"price_cents,omitempty"`
		IsCompleted bool    `json:"is_completed"`
	}

	ShoppingList struct {
		ID          string         `json:"id"`
		UserID      string         `json:"user_id"`
		Name        string         `json:"name"`
		Items       []ShoppingItem `json:"items"`
		IsCompleted bool           `json:"is_completed"`
		CompletedAt time.Time      `json:"completed_at"`
	}

	HouseholdMember struct {
		ID       string    `json:"id"`
		UserID   string    `json:"user_id"`
		Name     string    `json:"name"`
		Email    string    `json:"email,omitempty"`
		Role     string    `json:"role,omitempty"`
		IsActive bool      `json:"is_active"`
		JoinedAt time.Time `json:"joined_at"`
	}

	NotificationPrefs struct {
		BudgetAlerts       bool `json:"budget_alerts"`
		ExpenseReminders   bool `json:"expense_reminders"`
		MonthlyReports     bool `json:"monthly_reports"`
		EmailNotifications bool `json:"email_notifications"`
	}

	UserSettings struct {
		UserID        string            `json:"user_id"`
		Currency      string            `json:"currency"`
		Language      string            `json:"language"`
		Theme         string            `json:"theme"`
		Notifications NotificationPrefs `json:"notifications"`
	}

	PasswordResetToken struct {
		ID        string
		Email     string
		Token     string
		ExpiresAt time.Time
		Used      bool
		UsedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyUser       = errors.New("empty user")
	ErrInvalidLimit    = errors.New("invalid budget limit")
	ErrInvalidPriority = errors.New("invalid priority")
)

// DefaultCategories are seeded for every user that has none yet.
var DefaultCategories = []Category{
	{Name: "Alimentação", Icon: "🍽️", Color: "#FF6B6B", IsDefault: true},
	{Name: "Transporte", Icon: "🚗", Color: "#4ECDC4", IsDefault: true},
	{Name: "Moradia", Icon: "🏠", Color: "#45B7D1", IsDefault: true},
	{Name: "Saúde", Icon: "🏥", Color: "#96CEB4", IsDefault: true},
	{Name: "Educação", Icon: "📚", Color: "#FFEAA7", IsDefault: true},
	{Name: "Lazer", Icon: "🎮", Color: "#DDA0DD", IsDefault: true},
	{Name: "Roupas", Icon: "👕", Color: "#98D8C8", IsDefault: true},
	{Name: "Outros", Icon: "📦", Color: "#A0A0A0", IsDefault: true},
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD civil date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidMonth reports whether s is a well-formed YYYY-MM month key.
func ValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !ValidDate(e.Date) {
		return ErrInvalidDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !ValidMonth(b.Month) {
		return ErrInvalidMonth
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyName
	}
	switch n.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return ErrInvalidPriority
	}
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !ValidDate(g.TargetDate) {
		return ErrInvalidDate
	}
	return nil
}

// DefaultSettings are the settings a user gets before saving any.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:   userID,
		Currency: "BRL",
		Language: "pt-BR",
		Theme:    "light",
		Notifications: NotificationPrefs{
			BudgetAlerts:     true,
			ExpenseReminders: true,
			MonthlyReports:   true,
		},
	}
}
