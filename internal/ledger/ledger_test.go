package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/cardscan/internal/models"
)

func card(email string) models.CardRecord {
	c := models.EmptyCard()
	c.CompanyName = "Acme"
	c.FullName = "Jane Doe"
	c.Email = email
	return c
}

func TestUpsertEmptyLedger(t *testing.T) {
	table := NewMemory()
	l := New(table)

	res, err := l.Upsert(context.Background(), card("a@x.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionAppended || res.Row != 0 {
		t.Errorf("expected plain append, got %+v", res)
	}

	rows, _ := table.Read(context.Background())
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if diff := cmp.Diff(models.HeaderRow, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[1][EmailColumn] != "a@x.com" {
		t.Errorf("expected email in column %d, got %q", EmailColumn, rows[1][EmailColumn])
	}
}

func TestUpsertCaseInsensitiveMatch(t *testing.T) {
	existing := card("A@X.COM")
	existing.JobTitle = "Intern"
	table := NewMemory(models.HeaderRow, card("other@x.com").Row(), existing.Row())
	l := New(table)

	updated := card("  a@x.com ")
	updated.JobTitle = "CEO"
	res, err := l.Upsert(context.Background(), updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionUpdated || res.Row != 3 {
		t.Fatalf("expected update of row 3, got %+v", res)
	}

	rows, _ := table.Read(context.Background())
	if len(rows) != 3 {
		t.Fatalf("expected no new rows, got %d", len(rows))
	}
	if rows[2][2] != "CEO" {
		t.Errorf("expected row to be overwritten, got %v", rows[2])
	}
}

func TestUpsertIdempotentOnEmail(t *testing.T) {
	table := NewMemory()
	l := New(table)
	ctx := context.Background()

	first, err := l.Upsert(ctx, card("jane@acme.test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.Upsert(ctx, card("jane@acme.test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Action != ActionAppended {
		t.Errorf("expected first upsert to append, got %s", first.Action)
	}
	if second.Action != ActionUpdated || second.Row != 2 {
		t.Errorf("expected second upsert to update row 2, got %+v", second)
	}

	rows, _ := table.Read(ctx)
	count := 0
	for _, r := range rows[1:] {
		if r[EmailColumn] == "jane@acme.test" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one row for the email, got %d", count)
	}
}

func TestUpsertSentinelEmailNeverMerges(t *testing.T) {
	table := NewMemory(models.HeaderRow, card(models.Null).Row())
	l := New(table)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Upsert(ctx, card(models.Null))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Action != ActionAppended {
			t.Errorf("upsert %d: expected append, got %+v", i, res)
		}
	}

	rows, _ := table.Read(ctx)
	if len(rows) != 4 {
		t.Errorf("expected header + 3 sentinel rows, got %d rows", len(rows))
	}
}

func TestUpsertFirstMatchWins(t *testing.T) {
	table := NewMemory(models.HeaderRow, card("dup@x.com").Row(), card("dup@x.com").Row())
	res, err := New(table).Upsert(context.Background(), card("dup@x.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Row != 2 {
		t.Errorf("expected first matching row, got %d", res.Row)
	}
}

func TestUpsertShortRows(t *testing.T) {
	table := NewMemory(models.HeaderRow, []string{"Acme", "Jane"})
	res, err := New(table).Upsert(context.Background(), card("a@x.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionAppended {
		t.Errorf("expected append, got %+v", res)
	}
}

func TestUpsertHeaderIsNeverMatched(t *testing.T) {
	table := NewMemory(models.HeaderRow)
	res, err := New(table).Upsert(context.Background(), card("Email"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != ActionAppended {
		t.Errorf("header row must not be treated as data, got %+v", res)
	}
}

type failingTable struct {
	readErr, updateErr, appendErr error
	rows                          [][]string
}

func (f *failingTable) Read(ctx context.Context) ([][]string, error) { return f.rows, f.readErr }
func (f *failingTable) Update(ctx context.Context, row int, values []string) error {
	return f.updateErr
}
func (f *failingTable) Append(ctx context.Context, rows [][]string) error { return f.appendErr }

func TestUpsertPropagatesTableErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		table *failingTable
		email string
	}{
		{name: "read", table: &failingTable{readErr: boom}, email: "a@x.com"},
		{name: "header", table: &failingTable{appendErr: boom}, email: "a@x.com"},
		{name: "update", table: &failingTable{rows: [][]string{models.HeaderRow, card("a@x.com").Row()}, updateErr: boom}, email: "a@x.com"},
		{name: "append", table: &failingTable{rows: [][]string{models.HeaderRow}, appendErr: boom}, email: "a@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.table).Upsert(context.Background(), card(tt.email)); !errors.Is(err, boom) {
				t.Errorf("expected wrapped table error, got %v", err)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	table := NewMemory(models.HeaderRow, card("a@x.com").Row(), []string{"Solo"})
	cards, err := New(table).Records(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 records, got %d", len(cards))
	}
	if cards[0].Email != "a@x.com" {
		t.Errorf("unexpected first record %+v", cards[0])
	}
	if cards[1].CompanyName != "Solo" || cards[1].Email != models.Null {
		t.Errorf("expected short row to normalize, got %+v", cards[1])
	}

	empty, err := New(NewMemory()).Records(context.Background())
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no records, got %v, %v", empty, err)
	}
}

func TestMemoryUpdateOutOfRange(t *testing.T) {
	m := NewMemory(models.HeaderRow)
	if err := m.Update(context.Background(), 5, []string{"x"}); err == nil {
		t.Error("expected out of range error")
	}
}
