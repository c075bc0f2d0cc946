package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format of a ledger snapshot
type Format string

const (
	FormatParquet Format = "parquet"
	FormatYAML    Format = "yaml"
)

// Record is the parquet row layout of a card
type Record struct {
	CompanyName string `parquet:"company_name"`
	FullName    string `parquet:"full_name"`
	JobTitle    string `parquet:"job_title"`
	Sector      string `parquet:"sector"`
	Mobile      string `parquet:"mobile"`
	OfficePhone string `parquet:"office_phone"`
	Email       string `parquet:"email"`
	Website     string `parquet:"website"`
	ImageLink   string `parquet:"image_link"`
}

// Snapshot is the YAML document layout
type Snapshot struct {
	ExportedAt time.Time           `yaml:"exported_at"`
	Count      int                 `yaml:"count"`
	Cards      []models.CardRecord `yaml:"cards"`
}

// ParseFormat resolves an explicit format name, or the path's extension when name is empty
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch strings.ToLower(name) {
	case "parquet":
		return FormatParquet, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use parquet or yaml)", name)
	}
}

// WriteFile writes cards to path in the given format
func WriteFile(path string, format Format, cards []models.CardRecord, now time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatParquet:
		err = WriteParquet(file, cards)
	case FormatYAML:
		err = WriteYAML(file, cards, now)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return err
	}

	slog.Info("Ledger exported", "path", path, "format", format, "cards", len(cards))
	return file.Close()
}

// WriteParquet writes one row per card
func WriteParquet(w io.Writer, cards []models.CardRecord) error {
	rows := make([]Record, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, Record{
			CompanyName: c.CompanyName,
			FullName:    c.FullName,
			JobTitle:    c.JobTitle,
			Sector:      c.Sector,
			Mobile:      c.Mobile,
			OfficePhone: c.OfficePhone,
			Email:       c.Email,
			Website:     c.Website,
			ImageLink:   c.ImageLink,
		})
	}

	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteYAML writes the cards as a single snapshot document
func WriteYAML(w io.Writer, cards []models.CardRecord, now time.Time) error {
	if cards == nil {
		cards = []models.CardRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&Snapshot{ExportedAt: now.UTC(), Count: len(cards), Cards: cards}); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
