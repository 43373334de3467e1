package domain

import (
	"strings"
	"time"
)

// Expense is money spent on a project outside purchase orders.
type Expense struct {
	ID         string
	ProjectID  string
	Category   string
	Amount     float64
	Currency   string
	IncurredAt time.Time
}

// NewExpense validates and constructs an expense row.
func NewExpense(id, projectID, category string, amount float64, currency string, incurredAt time.Time) (Expense, error) {
	id = strings.TrimSpace(id)
	projectID = strings.TrimSpace(projectID)
	if id == "" || projectID == "" {
		return Expense{}, ErrInvalidID
	}
	if amount < 0 {
		return Expense{}, ErrInvalidAmount
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		ID:         id,
		ProjectID:  projectID,
		Category:   strings.ToLower(strings.TrimSpace(category)),
		Amount:     amount,
		Currency:   currency,
		IncurredAt: incurredAt.UTC(),
	}, nil
}

// Income is money received from sales of a project's product.
type Income struct {
	ID         string
	ProjectID  string
	Source     string
	Amount     float64
	Currency   string
	ReceivedAt time.Time
}

// NewIncome validates and constructs an income row.
func NewIncome(id, projectID, source string, amount float64, currency string, receivedAt time.Time) (Income, error) {
	id = strings.TrimSpace(id)
	projectID = strings.TrimSpace(projectID)
	if id == "" || projectID == "" {
		return Income{}, ErrInvalidID
	}
	if amount < 0 {
		return Income{}, ErrInvalidAmount
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return Income{}, err
	}
	return Income{
		ID:         id,
		ProjectID:  projectID,
		Source:     strings.TrimSpace(source),
		Amount:     amount,
		Currency:   currency,
		ReceivedAt: receivedAt.UTC(),
	}, nil
}
