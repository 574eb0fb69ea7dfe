package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/example/storefront/internal/payment"
)

const maxWebhookBody = 1 << 16 // 64KB, well above any provider payload

// EventProcessor applies one verified provider event.
type EventProcessor interface {
	Process(ctx context.Context, ev *payment.Event) error
}

// WebhookHandlers receives payment provider callbacks. Signature verification
// happens before any processing; an unverifiable payload is rejected without
// side effects.
type WebhookHandlers struct {
	provider  payment.Provider
	processor EventProcessor
}

func NewWebhookHandlers(provider payment.Provider, processor EventProcessor) *WebhookHandlers {
	return &WebhookHandlers{provider: provider, processor: processor}
}

// HandlePaymentEvent verifies and processes one provider delivery.
// 200 tells the provider the event is settled (including idempotent no-ops);
// 400 rejects bad payloads permanently; 500 asks for a retry.
func (h *WebhookHandlers) HandlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondJSONError(w, "Failed to read payload", http.StatusBadRequest)
		return
	}

	ev, err := h.provider.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			log.Printf("[Webhook] Rejected delivery with bad signature from %s", r.RemoteAddr)
			respondJSONError(w, "Invalid signature", http.StatusBadRequest)
			return
		}
		respondJSONError(w, "Malformed payload", http.StatusBadRequest)
		return
	}

	if err := h.processor.Process(r.Context(), ev); err != nil {
		log.Printf("[Webhook] Processing event %s failed: %v", ev.ID, err)
		respondJSONError(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
