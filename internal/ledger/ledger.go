package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/cardscan/internal/models"
)

// EmailColumn is the 0-based index of the email cell, the upsert key
const EmailColumn = 6

// Table is a rectangular store of string rows addressed by 1-based row number
type Table interface {
	// Read returns every row, header included
	Read(ctx context.Context) ([][]string, error)
	// Update overwrites a single row
	Update(ctx context.Context, row int, values []string) error
	// Append adds rows after the last non-empty row
	Append(ctx context.Context, rows [][]string) error
}

// Action is what Upsert did with a record
type Action string

const (
	ActionUpdated  Action = "updated"
	ActionAppended Action = "appended"
)

// Result describes an upsert. Row is only set for updates.
type Result struct {
	Action Action `json:"action"`
	Row    int    `json:"row,omitempty"`
}

// Ledger keeps one row per distinct email in a Table.
// Upsert is read-scan-write and not transactional: two concurrent upserts for
// the same new email can both append.
type Ledger struct {
	table Table
}

// New creates a ledger over table
func New(table Table) *Ledger {
	return &Ledger{table: table}
}

// Upsert overwrites the first data row whose email matches the card's email
// (case-insensitive, trimmed), or appends a new row. Cards whose email is the
// Null sentinel always append.
func (l *Ledger) Upsert(ctx context.Context, card models.CardRecord) (Result, error) {
	rows, err := l.table.Read(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	if len(rows) == 0 {
		slog.Info("Ledger is empty, writing header row")
		if err := l.table.Append(ctx, [][]string{models.HeaderRow}); err != nil {
			return Result{}, fmt.Errorf("failed to write ledger header: %w", err)
		}
		rows = [][]string{models.HeaderRow}
	}

	row := card.Row()

	if key := normalizeEmail(card.Email); isMatchable(key) {
		for i := 1; i < len(rows); i++ {
			if normalizeEmail(cell(rows[i], EmailColumn)) != key {
				continue
			}
			rowNumber := i + 1
			if err := l.table.Update(ctx, rowNumber, row); err != nil {
				return Result{}, fmt.Errorf("failed to update ledger row %d: %w", rowNumber, err)
			}
			slog.Info("Ledger row updated", "row", rowNumber)
			return Result{Action: ActionUpdated, Row: rowNumber}, nil
		}
	}

	if err := l.table.Append(ctx, [][]string{row}); err != nil {
		return Result{}, fmt.Errorf("failed to append ledger row: %w", err)
	}
	slog.Info("Ledger row appended")
	return Result{Action: ActionAppended}, nil
}

// Records returns every data row as a card, skipping the header
func (l *Ledger) Records(ctx context.Context) ([]models.CardRecord, error) {
	rows, err := l.table.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	cards := make([]models.CardRecord, 0, len(rows)-1)
	for _, r := range rows[1:] {
		cards = append(cards, models.CardFromRow(r))
	}
	return cards, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isMatchable reports whether a normalized email can be used as a key.
// The lower-cased sentinel never matches.
func isMatchable(key string) bool {
	return key != "" && key != strings.ToLower(models.Null)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
