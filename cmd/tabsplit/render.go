package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

func renderSettlement(s *models.Session, r *calculator.Report) string {
	rows := make([][]string, 0, len(r.People)+1)
	for _, p := range r.People {
		rows = append(rows, []string{
			p.Name,
			money(p.Subtotal),
			"-" + money(p.DiscountShare),
			money(p.ServiceFeeShare),
			money(p.Total),
			percent(p.PercentOfBill),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("Person", "Consumed", "Discount", "Service", "Total", "Share").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Name))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Gross %s  Discount -%s  Service %s%% %s  Grand total %s\n",
		money(r.GrossTotal), money(s.DiscountAmount),
		decimal.NewFromFloat(s.ServiceFeePercent).String(), money(r.ServiceFeeTotal),
		money(r.GrandTotal))
	b.WriteString(renderProgress(s, r.Progress))
	return b.String()
}

func renderProgress(s *models.Session, p calculator.Progress) string {
	line := fmt.Sprintf("%s distributed", percent(p.PercentDistributed))
	if p.ItemsIncomplete == 0 && len(s.Items) > 0 {
		return successStyle.Render("✔ " + line)
	}

	var pending []string
	for i := range s.Items {
		item := &s.Items[i]
		if left := item.Quantity - item.AssignedQuantity(); left > 1e-9 {
			pending = append(pending, fmt.Sprintf("  %s: %s of %s unassigned",
				item.Name,
				decimal.NewFromFloat(left).Round(2).String(),
				decimal.NewFromFloat(item.Quantity).String()))
		}
	}
	out := pendingStyle.Render(fmt.Sprintf("… %s, %d item(s) incomplete", line, p.ItemsIncomplete))
	if len(pending) > 0 {
		out += "\n" + mutedStyle.Render(strings.Join(pending, "\n"))
	}
	return out
}
