package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/archive"
	"github.com/lehigh-university-libraries/cardscan/internal/ledger"
	"github.com/lehigh-university-libraries/cardscan/internal/models"
	"github.com/lehigh-university-libraries/cardscan/internal/throttle"
)

// MaxBodyBytes bounds request bodies; base64 inflates a 12 MB image to about 16 MiB
const MaxBodyBytes = 16 << 20

// Extractor turns an image into a card record
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType, model string) (models.CardRecord, error)
}

// Archiver stores the card image and returns its public link, or "" on failure
type Archiver interface {
	Archive(ctx context.Context, asset archive.Asset) string
}

// Upserter writes a card into the ledger
type Upserter interface {
	Upsert(ctx context.Context, card models.CardRecord) (ledger.Result, error)
}

// Handler serves the scan and sync API
type Handler struct {
	extractor Extractor
	archiver  Archiver
	ledger    Upserter
	throttle  *throttle.Throttle
	now       func() time.Time
}

// New creates a Handler; gate is shared by every scan request
func New(extractor Extractor, archiver Archiver, upserter Upserter, gate *throttle.Throttle) *Handler {
	return &Handler{
		extractor: extractor,
		archiver:  archiver,
		ledger:    upserter,
		throttle:  gate,
		now:       time.Now,
	}
}

// errorResponse is the JSON body of every non-2xx API response
type errorResponse struct {
	Error   string `json:"error"`
	WaitSec int    `json:"waitSec,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v. On failure it writes a 413 for
// oversized bodies or a 400 otherwise, and returns false.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return false
	}
	h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
	return false
}

// decodeImage accepts raw base64 or a data URL
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if _, payload, ok := strings.Cut(encoded, ","); ok {
			encoded = payload
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	return data, nil
}
