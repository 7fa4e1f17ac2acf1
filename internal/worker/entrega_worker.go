package worker

// entrega_worker.go
// Processes delivery jobs from QueueEntrega: loads the quote, renders the
// PDF, archives a copy under the storage path and mails it to the customer.
// One-shot and best-effort — a failed delivery is logged, never retried
// automatically; the seller re-sends from the UI.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DiegoMao201/Cotizador-sub000/internal/infra"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"

	"github.com/rs/zerolog/log"
)

// EntregaJobPayload is the job envelope sent to QueueEntrega.
type EntregaJobPayload struct {
	PropuestaID string `json:"propuesta_id"`
	ToEmail     string `json:"to_email"`
	Asunto      string `json:"asunto"`
	Cuerpo      string `json:"cuerpo"`
}

// EntregaWorker renders and emails quotes off the request path.
type EntregaWorker struct {
	repo        repository.CotizacionRepository
	mailer      *infra.Mailer
	cb          *infra.CircuitBreaker
	empresa     infra.EmpresaInfo
	storagePath string
}

func NewEntregaWorker(
	repo repository.CotizacionRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	empresa infra.EmpresaInfo,
	storagePath string,
) *EntregaWorker {
	return &EntregaWorker{repo: repo, mailer: mailer, cb: cb, empresa: empresa, storagePath: storagePath}
}

// Process renders the quote PDF and emails it. The SMTP send goes through
// the circuit breaker so a dead relay fast-fails instead of stacking
// 30-second timeouts across the pool.
func (w *EntregaWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EntregaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("entrega_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Str("propuesta_id", payload.PropuestaID).Msg("entrega_worker: empty to_email — skipping")
		return
	}

	cot, err := w.repo.GetHeader(ctx, payload.PropuestaID)
	if err != nil {
		log.Error().Err(err).Str("propuesta_id", payload.PropuestaID).Msg("entrega_worker: header not found")
		return
	}
	items, err := w.repo.GetItems(ctx, payload.PropuestaID)
	if err != nil {
		log.Error().Err(err).Str("propuesta_id", payload.PropuestaID).Msg("entrega_worker: items read failed")
		return
	}
	cot.Items = items
	cot.Recalcular()

	pdfBytes, err := infra.GenerateCotizacionPDF(cot, w.empresa)
	if err != nil {
		log.Error().Err(err).Str("propuesta_id", payload.PropuestaID).Msg("entrega_worker: pdf render failed")
		return
	}

	pdfName := fmt.Sprintf("cotizacion_%s.pdf", cot.PropuestaID)
	if w.storagePath != "" {
		if err := os.MkdirAll(w.storagePath, 0755); err == nil {
			if err := os.WriteFile(filepath.Join(w.storagePath, pdfName), pdfBytes, 0644); err != nil {
				log.Warn().Err(err).Msg("entrega_worker: could not archive pdf copy")
			}
		}
	}

	cuerpo := payload.Cuerpo
	if cuerpo == "" {
		cuerpo = fmt.Sprintf("Adjuntamos la cotización %s de %s.\n\nTotal: $%s\n\n%s",
			cot.PropuestaID, w.empresa.Nombre, cot.TotalNeto.StringFixed(2), cot.Observaciones)
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendCotizacion(payload.ToEmail, payload.Asunto, cuerpo, pdfBytes, pdfName)
	})
	if sendErr != nil {
		log.Error().Err(sendErr).
			Str("propuesta_id", payload.PropuestaID).
			Str("to", payload.ToEmail).
			Str("smtp_breaker", w.cb.State()).
			Msg("entrega_worker: delivery failed")
		return
	}
	log.Info().
		Str("propuesta_id", payload.PropuestaID).
		Str("to", payload.ToEmail).
		Msg("entrega_worker: cotización enviada")
}
