package models

import (
	"github.com/shopspring/decimal"
)

// Issue is a row of the issues table.
type Issue struct {
	IssueID         string              `db:"id"`
	Title           string              `db:"title"`
	Reason          string              `db:"reason"`
	Amount          decimal.Decimal     `db:"amount"`
	Status          string              `db:"status"`
	ReceiptPaths    []string            `db:"receipt_paths"`
	RemainingAmount decimal.NullDecimal `db:"remaining_amount"`
	OwnerID         string              `db:"owner_id"`
	Timestamps
}

// IssueWithOwner is an issues row joined with the owner's profile display columns.
type IssueWithOwner struct {
	Issue
	OwnerName  string `db:"owner_name"`
	OwnerEmail string `db:"owner_email"`
}
