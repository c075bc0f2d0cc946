package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSafe(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "plain string", input: "Acme", expected: "Acme"},
		{name: "trims whitespace", input: "  Acme Corp \n", expected: "Acme Corp"},
		{name: "empty string", input: "", expected: Null},
		{name: "blank string", input: "   ", expected: Null},
		{name: "nil", input: nil, expected: Null},
		{name: "number", input: 42.0, expected: Null},
		{name: "bool", input: true, expected: Null},
		{name: "sentinel passes through", input: "Null", expected: Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Safe(tt.input); got != tt.expected {
				t.Errorf("Safe(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEmptyCard(t *testing.T) {
	card := EmptyCard()
	for i, cell := range card.Row()[:8] {
		if cell != Null {
			t.Errorf("column %d: expected %q, got %q", i, Null, cell)
		}
	}
	if card.ImageLink != "" {
		t.Errorf("expected empty image link, got %q", card.ImageLink)
	}
}

func TestNormalize(t *testing.T) {
	card := CardRecord{
		CompanyName: " Acme ",
		FullName:    "",
		Mobile:      "+1 555 0100 | +1 555 0101",
		ImageLink:   " https://example.com/a.jpg ",
	}
	card.Normalize()

	expected := CardRecord{
		CompanyName: "Acme",
		FullName:    Null,
		JobTitle:    Null,
		Sector:      Null,
		Mobile:      "+1 555 0100 | +1 555 0101",
		OfficePhone: Null,
		Email:       Null,
		Website:     Null,
		ImageLink:   "https://example.com/a.jpg",
	}
	if diff := cmp.Diff(expected, card); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestSet(t *testing.T) {
	card := EmptyCard()

	if err := card.Set("email", "  jane@example.com "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Email != "jane@example.com" {
		t.Errorf("expected trimmed email, got %q", card.Email)
	}

	if err := card.Set("jobTitle", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.JobTitle != Null {
		t.Errorf("expected blank edit to become %q, got %q", Null, card.JobTitle)
	}

	if err := card.Set("imageLink", "https://example.com"); err == nil {
		t.Error("expected imageLink to be read-only")
	}
	if err := card.Set("fax", "123"); err == nil {
		t.Error("expected unknown field to fail")
	}
}

func TestRowRoundTrip(t *testing.T) {
	card := CardRecord{
		CompanyName: "Acme",
		FullName:    "Jane Doe",
		JobTitle:    "CEO",
		Sector:      "Logistics",
		Mobile:      "+971 50 000 0000",
		OfficePhone: Null,
		Email:       "jane@acme.test",
		Website:     "acme.test",
		ImageLink:   "https://example.com/card.jpg",
	}

	row := card.Row()
	if len(row) != len(HeaderRow) {
		t.Fatalf("expected %d cells, got %d", len(HeaderRow), len(row))
	}
	if row[6] != card.Email {
		t.Errorf("expected email in column 6, got %q", row[6])
	}
	if diff := cmp.Diff(card, CardFromRow(row)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCardFromShortRow(t *testing.T) {
	card := CardFromRow([]string{"Acme", "Jane"})
	if card.CompanyName != "Acme" || card.FullName != "Jane" {
		t.Errorf("unexpected leading cells: %+v", card)
	}
	if card.Email != Null || card.ImageLink != "" {
		t.Errorf("expected missing cells to normalize, got %+v", card)
	}
}
