package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/cardscan/internal/archive"
	"github.com/lehigh-university-libraries/cardscan/internal/ledger"
	"github.com/lehigh-university-libraries/cardscan/internal/models"
)

type syncRequest struct {
	Card        *models.CardRecord `json:"card"`
	ImageBase64 string             `json:"imageBase64"`
	MIMEType    string             `json:"mimeType"`
}

type syncResponse struct {
	Success   bool          `json:"success"`
	Action    ledger.Action `json:"action"`
	ImageLink string        `json:"imageLink"`
	Row       int           `json:"row,omitempty"`
}

// HandleSync archives the card image and upserts the card into the ledger.
// Archival failure degrades to an empty link; ledger failure is a 500.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Card == nil || req.ImageBase64 == "" || req.MIMEType == "" {
		h.writeError(w, "Card, image and MIME type are required", http.StatusBadRequest)
		return
	}
	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		h.writeError(w, "Invalid image encoding: "+err.Error(), http.StatusBadRequest)
		return
	}

	card := *req.Card
	card.Normalize()

	link := h.archiver.Archive(r.Context(), archive.Asset{
		Data:     image,
		MIMEType: req.MIMEType,
		Filename: archive.Filename(card, req.MIMEType, h.now()),
	})
	card.ImageLink = link

	result, err := h.ledger.Upsert(r.Context(), card)
	if err != nil {
		slog.Error("Ledger upsert failed", "err", err)
		h.writeError(w, "Failed to save card: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Card synced", "action", result.Action, "row", result.Row, "archived", link != "")
	h.writeJSON(w, http.StatusOK, syncResponse{
		Success:   true,
		Action:    result.Action,
		ImageLink: link,
		Row:       result.Row,
	})
}
