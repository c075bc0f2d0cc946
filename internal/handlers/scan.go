package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/cardscan/internal/extraction"
	"github.com/lehigh-university-libraries/cardscan/internal/models"
	"github.com/lehigh-university-libraries/cardscan/internal/providers"
)

// QuotaExceededCode marks a 429 caused by provider quota rather than the cooldown
const QuotaExceededCode = "QUOTA_EXCEEDED"

type scanRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MIMEType    string `json:"mimeType"`
	Model       string `json:"model,omitempty"`
}

type scanResponse struct {
	Success bool              `json:"success"`
	Data    models.CardRecord `json:"data"`
}

// HandleScan extracts a card record from an uploaded image.
// Input is validated before the cooldown slot is taken.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.ImageBase64 == "" || req.MIMEType == "" {
		h.writeError(w, "Image and MIME type are required", http.StatusBadRequest)
		return
	}
	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		h.writeError(w, "Invalid image encoding: "+err.Error(), http.StatusBadRequest)
		return
	}

	decision := h.throttle.Admit()
	if !decision.Allowed {
		slog.Info("Scan rejected by cooldown", "wait_sec", decision.WaitSec)
		h.writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:   "Please wait before scanning another card",
			WaitSec: decision.WaitSec,
		})
		return
	}

	card, err := h.extractor.Extract(r.Context(), image, req.MIMEType, req.Model)
	if err != nil {
		h.writeScanError(w, err, req.Model)
		return
	}

	h.writeJSON(w, http.StatusOK, scanResponse{Success: true, Data: card})
}

func (h *Handler) writeScanError(w http.ResponseWriter, err error, model string) {
	if providers.IsQuotaExceeded(err) {
		// the caller may retry at once with a lighter model
		h.throttle.Reset()
		slog.Warn("Vision model quota exceeded", "model", model, "err", err)
		h.writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: "Daily quota exceeded for this model",
			Code:  QuotaExceededCode,
		})
		return
	}

	var parseErr *extraction.ParseError
	if errors.As(err, &parseErr) {
		slog.Error("Unable to parse model output", "stage", parseErr.Stage, "err", err)
	} else {
		slog.Error("Card extraction failed", "model", model, "err", err)
	}
	h.writeError(w, err.Error(), http.StatusInternalServerError)
}
