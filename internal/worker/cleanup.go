package worker

import (
	"context"
	"time"

	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/storage"
	"garagesale/internal/repository/cleanupqueue"
)

// CleanupWorker drena a fila de limpeza do storage: remove do bucket os
// objetos de produtos apagados. A fila é alimentada na transação de remoção,
// então nenhum objeto fica órfão se o processo cair no meio.
type CleanupWorker struct {
	queue    *cleanupqueue.Repository
	storage  storage.Storage
	log      logger.Logger
	interval time.Duration
	batch    int
}

// NewCleanupWorker cria o worker de limpeza.
func NewCleanupWorker(queue *cleanupqueue.Repository, store storage.Storage, log logger.Logger, interval time.Duration, batch int) *CleanupWorker {
	return &CleanupWorker{
		queue:    queue,
		storage:  store,
		log:      log,
		interval: interval,
		batch:    batch,
	}
}

// Run processa a fila em loop até o contexto ser cancelado.
// Deve rodar em uma goroutine própria.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Worker de limpeza do storage iniciado", map[string]interface{}{
		"interval": w.interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker de limpeza encerrado", nil)
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processa um lote da fila.
func (w *CleanupWorker) drain(ctx context.Context) {
	items, err := w.queue.Claim(ctx, w.batch)
	if err != nil {
		w.log.Warn("Falha ao reivindicar itens da fila de limpeza", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, item := range items {
		if err := w.storage.Delete(ctx, item.ObjectPath); err != nil {
			w.log.Warn("Falha ao remover objeto do storage", map[string]interface{}{
				"path":     item.ObjectPath,
				"attempts": item.Attempts,
				"error":    err.Error(),
			})
			if markErr := w.queue.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
				w.log.Warn("Falha ao registrar erro na fila de limpeza", map[string]interface{}{
					"item_id": item.ID,
					"error":   markErr.Error(),
				})
			}
			continue
		}

		if err := w.queue.MarkDone(ctx, item.ID); err != nil {
			w.log.Warn("Falha ao concluir item da fila de limpeza", map[string]interface{}{
				"item_id": item.ID,
				"error":   err.Error(),
			})
		}
	}
}
