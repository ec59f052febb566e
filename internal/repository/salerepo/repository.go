package salerepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
)

// Repository persiste vendas no Postgres.
type Repository struct {
	db  *sql.DB
	log logger.Logger
}

// NewRepository cria o repositório de vendas.
func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// CreatePurchase executa a compra atômica: um UPDATE condicional transiciona o
// produto available→sold e captura o snapshot de preço; o INSERT da venda roda
// na mesma transação. Duas compras concorrentes disputam o UPDATE — quem não
// afetar linha recebe ConflictError (ou NotFound, se o produto não existir).
func (r *Repository) CreatePurchase(ctx context.Context, productID, buyerID uuid.UUID, buyerNotes string) (domain.Sale, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Sale{}, apperror.NewDBError("falha ao iniciar transação de compra", err)
	}
	defer tx.Rollback()

	var sellerID uuid.UUID
	var amount decimal.Decimal
	var currency string

	err = tx.QueryRowContext(ctx, `
		UPDATE products
		SET status = 'sold', sold_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'available' AND deleted_at IS NULL
		RETURNING seller_id, price, currency`,
		productID,
	).Scan(&sellerID, &amount, &currency)

	if err == sql.ErrNoRows {
		// Distinguir inexistente de indisponível para o código HTTP correto.
		var exists bool
		checkErr := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)`,
			productID,
		).Scan(&exists)
		if checkErr != nil {
			return domain.Sale{}, apperror.NewDBError("falha ao verificar produto da compra", checkErr)
		}
		if !exists {
			return domain.Sale{}, apperror.NewNotFoundError(fmt.Sprintf("produto %s", productID))
		}
		return domain.Sale{}, apperror.NewConflictError("Produto não está mais disponível para compra.")
	}
	if err != nil {
		return domain.Sale{}, apperror.NewDBError("falha ao reservar produto para compra", err)
	}

	if sellerID == buyerID {
		// O vendedor não compra o próprio produto; o rollback desfaz o UPDATE.
		return domain.Sale{}, apperror.NewValidationError("Você não pode comprar o seu próprio produto.")
	}

	price, err := domain.NewMoney(amount, currency)
	if err != nil {
		return domain.Sale{}, apperror.NewDBError("preço inválido no banco", err)
	}

	now := time.Now().UTC()
	sale := domain.Sale{
		ID:         uuid.New(),
		ProductID:  productID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		Price:      price,
		Status:     domain.SalePending,
		BuyerNotes: buyerNotes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, product_id, buyer_id, seller_id, price, currency, status,
		                   buyer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sale.ID, sale.ProductID, sale.BuyerID, sale.SellerID,
		sale.Price.Amount(), sale.Price.Currency(), sale.Status,
		sale.BuyerNotes, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return domain.Sale{}, apperror.NewDBError("falha ao registrar venda", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Sale{}, apperror.NewDBError("falha ao confirmar compra", err)
	}
	return sale, nil
}

func scanSale(row interface{ Scan(...interface{}) error }) (domain.Sale, error) {
	var s domain.Sale
	var amount decimal.Decimal
	var currency string
	var buyerNotes, sellerNotes sql.NullString

	err := row.Scan(&s.ID, &s.ProductID, &s.BuyerID, &s.SellerID, &amount, &currency,
		&s.Status, &buyerNotes, &sellerNotes, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Sale{}, err
	}

	price, err := domain.NewMoney(amount, currency)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("preço inválido no banco: %w", err)
	}
	s.Price = price
	s.BuyerNotes = buyerNotes.String
	s.SellerNotes = sellerNotes.String
	return s, nil
}

const saleColumns = `
	id, product_id, buyer_id, seller_id, price, currency, status,
	buyer_notes, seller_notes, completed_at, created_at, updated_at`

// FindByID carrega uma venda.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (domain.Sale, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)

	s, err := scanSale(row)
	if err == sql.ErrNoRows {
		return domain.Sale{}, apperror.NewNotFoundError(fmt.Sprintf("venda %s", id))
	}
	if err != nil {
		return domain.Sale{}, apperror.NewDBError("falha ao buscar venda", err)
	}
	return s, nil
}

// FindForUser lista as vendas em que o usuário participa, como comprador
// ou como vendedor, das mais recentes para as mais antigas.
func (r *Repository) FindForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Sale, error) {
	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, pageSize, offset,
	)
	if err != nil {
		return nil, apperror.NewDBError("falha ao listar vendas do usuário", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, apperror.NewDBError("falha ao ler venda da listagem", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("falha ao percorrer vendas do usuário", err)
	}
	return sales, nil
}

// UpdateStatus grava a transição de status da venda. Quando releaseProduct é
// verdadeiro (cancelamento), o produto volta a available na mesma transação.
func (r *Repository) UpdateStatus(ctx context.Context, s domain.Sale, releaseProduct bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewDBError("falha ao iniciar transação de status da venda", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $2, seller_notes = $3, completed_at = $4, updated_at = $5
		WHERE id = $1`,
		s.ID, s.Status, s.SellerNotes, s.CompletedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperror.NewDBError("falha ao atualizar status da venda", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar atualização da venda", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("venda %s", s.ID))
	}

	if releaseProduct {
		// Compensação do cancelamento: o produto volta à vitrine.
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET status = 'available', sold_at = NULL, updated_at = now()
			WHERE id = $1 AND status = 'sold'`,
			s.ProductID,
		); err != nil {
			return apperror.NewDBError("falha ao devolver produto à vitrine", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("falha ao confirmar status da venda", err)
	}
	return nil
}
