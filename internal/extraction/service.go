package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/cardscan/internal/models"
	"github.com/lehigh-university-libraries/cardscan/internal/providers"
)

// Stage identifies one of the two model calls made per card.
type Stage int

const (
	// StageRawExtract reads every field from the card and answers with JSON.
	StageRawExtract Stage = iota
	// StageVisualVerify re-checks the company name against logos and branding
	// and answers with a bare string.
	StageVisualVerify
)

func (s Stage) String() string {
	switch s {
	case StageRawExtract:
		return "raw_extract"
	case StageVisualVerify:
		return "visual_verify"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// rawExcerptLimit caps how much of an unparseable response is kept for diagnostics
const rawExcerptLimit = 300

// ErrNoImage is returned when Extract is called without image data
var ErrNoImage = errors.New("image data and MIME type are required")

// ParseError reports model output that does not match the expected shape.
// Raw holds at most rawExcerptLimit characters of the response.
type ParseError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extraction parse error in %s pass: %v. Raw response: %s", e.Stage, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Service turns a business card image into a CardRecord
type Service struct {
	provider     providers.Provider
	defaultModel string
	temperature  float64
}

// NewService creates an extraction service backed by provider.
// defaultModel is used when Extract is called without a model.
func NewService(provider providers.Provider, defaultModel string) *Service {
	return &Service{
		provider:     provider,
		defaultModel: defaultModel,
		temperature:  0.1, // Low temperature for consistent, factual output
	}
}

// Extract runs the raw extraction pass and then the visual verification pass.
// Any failure in either pass aborts the extraction; no partial record is returned.
func (s *Service) Extract(ctx context.Context, image []byte, mimeType, model string) (models.CardRecord, error) {
	if len(image) == 0 || mimeType == "" {
		return models.CardRecord{}, ErrNoImage
	}
	if model == "" {
		model = s.defaultModel
	}

	rawText, err := s.invoke(ctx, StageRawExtract, buildExtractionPrompt(), image, mimeType, model)
	if err != nil {
		return models.CardRecord{}, err
	}

	card, err := parseRawExtract(rawText)
	if err != nil {
		return models.CardRecord{}, err
	}

	verifyText, err := s.invoke(ctx, StageVisualVerify, buildVerificationPrompt(card.CompanyName), image, mimeType, model)
	if err != nil {
		return models.CardRecord{}, err
	}

	if verified := parseVisualVerify(verifyText); verified != "" {
		if verified != card.CompanyName {
			slog.Info("Visual verification corrected company name", "model", model)
		}
		card.CompanyName = verified
	}

	card.ImageLink = ""
	slog.Info("Card extracted", "model", model, "has_email", card.Email != models.Null)
	return card, nil
}

func (s *Service) invoke(ctx context.Context, stage Stage, prompt string, image []byte, mimeType, model string) (string, error) {
	slog.Debug("Calling vision model", "stage", stage, "model", model, "image_bytes", len(image))

	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       model,
		Temperature: s.temperature,
		Prompt:      prompt,
		Image:       image,
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("%s pass failed: %w", stage, err)
	}
	return text, nil
}

// parseRawExtract decodes the first pass response into a normalized record.
// Missing or non-string fields become Null; unknown keys are ignored.
func parseRawExtract(response string) (models.CardRecord, error) {
	raw := strings.TrimSpace(response)

	var fields map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fields); err != nil {
		return models.CardRecord{}, &ParseError{Stage: StageRawExtract, Raw: excerpt(raw), Err: err}
	}
	if fields == nil {
		return models.CardRecord{}, &ParseError{Stage: StageRawExtract, Raw: excerpt(raw), Err: errors.New("expected a JSON object")}
	}

	return models.CardRecord{
		CompanyName: models.Safe(fields["companyName"]),
		FullName:    models.Safe(fields["fullName"]),
		JobTitle:    models.Safe(fields["jobTitle"]),
		Sector:      models.Safe(fields["sector"]),
		Mobile:      models.Safe(fields["mobile"]),
		OfficePhone: models.Safe(fields["officePhone"]),
		Email:       models.Safe(fields["email"]),
		Website:     models.Safe(fields["website"]),
	}, nil
}

// parseVisualVerify cleans the second pass response. An empty result means
// the first pass value should be kept.
func parseVisualVerify(response string) string {
	name := strings.TrimSpace(response)
	name = strings.TrimPrefix(name, "```")
	name = strings.TrimSuffix(name, "```")
	name = strings.TrimSpace(name)

	if strings.HasPrefix(name, `"`) || strings.HasPrefix(name, `'`) {
		name = name[1:]
	}
	if strings.HasSuffix(name, `"`) || strings.HasSuffix(name, `'`) {
		name = name[:len(name)-1]
	}
	return strings.TrimSpace(name)
}

// stripCodeFence removes markdown code fences the model sometimes wraps JSON in
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= rawExcerptLimit {
		return s
	}
	return string(r[:rawExcerptLimit])
}
