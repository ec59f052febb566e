package cleanupqueue

import (
	"context"
	"database/sql"
	"time"

	apperror "garagesale/internal/errors"
)

// Item é uma entrada pendente da fila de limpeza de objetos no storage.
type Item struct {
	ID         int64
	ObjectPath string
	Attempts   int
	CreatedAt  time.Time
}

// Repository gerencia a fila de limpeza persistida no Postgres. A fila é
// alimentada na transação de remoção do produto e consumida por um worker.
type Repository struct {
	db *sql.DB
}

// NewRepository cria o repositório da fila de limpeza.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Claim reivindica até limit itens pendentes em um único statement:
// SKIP LOCKED evita disputa entre workers e o incremento de attempts marca
// a reivindicação, então itens travados não são entregues duas vezes.
func (r *Repository) Claim(ctx context.Context, limit int) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH next AS (
			SELECT id FROM storage_cleanup_queue
			WHERE attempts < 5
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE storage_cleanup_queue q
		SET attempts = q.attempts + 1
		FROM next
		WHERE q.id = next.id
		RETURNING q.id, q.object_path, q.attempts, q.created_at`,
		limit,
	)
	if err != nil {
		return nil, apperror.NewDBError("falha ao reivindicar itens da fila de limpeza", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ObjectPath, &it.Attempts, &it.CreatedAt); err != nil {
			return nil, apperror.NewDBError("falha ao ler item da fila de limpeza", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("falha ao percorrer fila de limpeza", err)
	}
	return items, nil
}

// MarkDone remove o item concluído da fila.
func (r *Repository) MarkDone(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM storage_cleanup_queue WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("falha ao concluir item da fila de limpeza", err)
	}
	return nil
}

// MarkFailed registra o motivo da falha. A tentativa já foi contada no Claim;
// itens que acumularem 5 tentativas deixam de ser reivindicados.
func (r *Repository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE storage_cleanup_queue
		SET last_error = $2
		WHERE id = $1`,
		id, reason,
	)
	if err != nil {
		return apperror.NewDBError("falha ao marcar falha na fila de limpeza", err)
	}
	return nil
}
