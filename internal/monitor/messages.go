package monitor

import (
	"fmt"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// fallbackCategoryName is shown when the budget's category no longer exists.
const fallbackCategoryName = "Categoria"

// AlertContent renders the notification for a budget that left the good
// status. The percentage is formatted with one decimal and the exceeded
// variant reports how far past the limit the user went.
func AlertContent(status core.BudgetStatus, categoryName string, percentage float64, spent, limit core.Money) (title, message string, priority core.Priority) {
	if categoryName == "" {
		categoryName = fallbackCategoryName
	}

	switch status {
	case core.StatusCaution:
		title = fmt.Sprintf("⚠️ Atenção: Orçamento de %s", categoryName)
		message = fmt.Sprintf("Você já gastou %.1f%% do orçamento desta categoria.", percentage)
		priority = core.PriorityLow
	case core.StatusWarning:
		title = fmt.Sprintf("🚨 Alerta: Orçamento de %s", categoryName)
		message = fmt.Sprintf("Cuidado! Você já gastou %.1f%% do orçamento desta categoria.", percentage)
		priority = core.PriorityMedium
	case core.StatusExceeded:
		title = fmt.Sprintf("🔴 Orçamento Excedido: %s", categoryName)
		message = fmt.Sprintf("Você excedeu o orçamento desta categoria em %.1f%%.", percentage-100)
		priority = core.PriorityHigh
	default:
		return "", "", ""
	}

	message = fmt.Sprintf("%s Gasto atual: %s de %s", message, spent.FormatReais(), limit.FormatReais())
	return title, message, priority
}

// MonthlyReportContent renders the end-of-month summary notification.
// monthName is the localized form produced by clock.MonthName.
func MonthlyReportContent(monthName string) (title, message string, priority core.Priority) {
	title = fmt.Sprintf("📊 Relatório Mensal - %s", monthName)
	message = "Seu relatório mensal de despesas está disponível. " +
		"Acesse a seção de Relatórios para visualizar suas estatísticas e análises detalhadas."
	return title, message, core.PriorityMedium
}
