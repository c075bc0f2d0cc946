package models

import (
	"fmt"
	"strings"
)

// Null is the in-band value for a card field that was not found on the card.
const Null = "Null"

// PhoneSeparator joins multiple numbers held in a single phone field.
const PhoneSeparator = " | "

// CardRecord represents the data extracted from one business card
type CardRecord struct {
	CompanyName string `json:"companyName" yaml:"companyName"`
	FullName    string `json:"fullName" yaml:"fullName"`
	JobTitle    string `json:"jobTitle" yaml:"jobTitle"`
	Sector      string `json:"sector" yaml:"sector"`
	Mobile      string `json:"mobile" yaml:"mobile"`
	OfficePhone string `json:"officePhone" yaml:"officePhone"`
	Email       string `json:"email" yaml:"email"`
	Website     string `json:"website" yaml:"website"`
	ImageLink   string `json:"imageLink" yaml:"imageLink"`
}

// HeaderRow is the first row of the ledger, in column order.
var HeaderRow = []string{
	"Company Name",
	"Full Name",
	"Job Title",
	"Sector",
	"Mobile",
	"Office Phone",
	"Email",
	"Website",
	"Image Link",
}

// EditableFields lists the JSON names of the fields a user may change during review.
var EditableFields = []string{
	"companyName",
	"fullName",
	"jobTitle",
	"sector",
	"mobile",
	"officePhone",
	"email",
	"website",
}

// EmptyCard returns a record with every field set to Null and no image link
func EmptyCard() CardRecord {
	return CardRecord{
		CompanyName: Null,
		FullName:    Null,
		JobTitle:    Null,
		Sector:      Null,
		Mobile:      Null,
		OfficePhone: Null,
		Email:       Null,
		Website:     Null,
	}
}

// Safe coerces a raw value into a field value: non-strings and blank strings
// become Null, anything else is trimmed.
func Safe(v any) string {
	s, ok := v.(string)
	if !ok {
		return Null
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Null
	}
	return s
}

// Normalize runs every field except ImageLink through Safe.
func (c *CardRecord) Normalize() {
	for _, f := range c.fieldPtrs() {
		*f = Safe(*f)
	}
	c.ImageLink = strings.TrimSpace(c.ImageLink)
}

// Set changes a single editable field by its JSON name. The value is normalized.
func (c *CardRecord) Set(field, value string) error {
	ptrs := c.fieldPtrs()
	for i, name := range EditableFields {
		if name == field {
			*ptrs[i] = Safe(value)
			return nil
		}
	}
	if field == "imageLink" {
		return fmt.Errorf("field %q is read-only", field)
	}
	return fmt.Errorf("unknown field %q", field)
}

// Row returns the record as a ledger row, in HeaderRow order
func (c CardRecord) Row() []string {
	return []string{
		c.CompanyName,
		c.FullName,
		c.JobTitle,
		c.Sector,
		c.Mobile,
		c.OfficePhone,
		c.Email,
		c.Website,
		c.ImageLink,
	}
}

// CardFromRow is the inverse of Row. Missing trailing cells are treated as blank.
func CardFromRow(row []string) CardRecord {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	c := CardRecord{
		CompanyName: cell(0),
		FullName:    cell(1),
		JobTitle:    cell(2),
		Sector:      cell(3),
		Mobile:      cell(4),
		OfficePhone: cell(5),
		Email:       cell(6),
		Website:     cell(7),
		ImageLink:   cell(8),
	}
	c.Normalize()
	return c
}

func (c *CardRecord) fieldPtrs() []*string {
	return []*string{
		&c.CompanyName,
		&c.FullName,
		&c.JobTitle,
		&c.Sector,
		&c.Mobile,
		&c.OfficePhone,
		&c.Email,
		&c.Website,
	}
}
