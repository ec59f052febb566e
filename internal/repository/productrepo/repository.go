package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/cache"
	"garagesale/internal/pkg/logger"
)

const (
	cacheKeyPrefix = "product:"
	cacheTTL       = 5 * time.Minute
)

// Repository persiste produtos no Postgres com cache-aside no Redis
// para leituras por ID.
type Repository struct {
	db    *sql.DB
	cache cache.Client
	log   logger.Logger
}

// NewRepository cria o repositório de produtos.
func NewRepository(db *sql.DB, cacheClient cache.Client, log logger.Logger) *Repository {
	return &Repository{db: db, cache: cacheClient, log: log}
}

// cachedProduct é a projeção serializável do produto para o Redis.
// O Money do domínio tem campos não exportados, então o preço é achatado aqui.
type cachedProduct struct {
	ID          uuid.UUID  `json:"id"`
	SellerID    uuid.UUID  `json:"seller_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PriceAmount string     `json:"price_amount"`
	Currency    string     `json:"currency"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Quantity    int        `json:"quantity"`
	Images      []string   `json:"images"`
	QRCodeData  string     `json:"qr_code_data"`
	QRCodeURL   string     `json:"qr_code_url"`
	ViewCount   int        `json:"view_count"`
	ReservedBy  *uuid.UUID `json:"reserved_by,omitempty"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	SoldAt      *time.Time `json:"sold_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toCached(p domain.Product) cachedProduct {
	return cachedProduct{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		PriceAmount: p.Price.Amount().StringFixed(2),
		Currency:    p.Price.Currency(),
		Category:    string(p.Category),
		Status:      string(p.Status),
		Quantity:    p.Quantity,
		Images:      p.Images,
		QRCodeData:  p.QRCodeData,
		QRCodeURL:   p.QRCodeURL,
		ViewCount:   p.ViewCount,
		ReservedBy:  p.ReservedBy,
		ReservedAt:  p.ReservedAt,
		SoldAt:      p.SoldAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromCached(c cachedProduct) (domain.Product, error) {
	price, err := domain.NewMoneyFromString(c.PriceAmount, c.Currency)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:          c.ID,
		SellerID:    c.SellerID,
		Name:        c.Name,
		Description: c.Description,
		Price:       price,
		Category:    domain.ProductCategory(c.Category),
		Status:      domain.ProductStatus(c.Status),
		Quantity:    c.Quantity,
		Images:      c.Images,
		QRCodeData:  c.QRCodeData,
		QRCodeURL:   c.QRCodeURL,
		ViewCount:   c.ViewCount,
		ReservedBy:  c.ReservedBy,
		ReservedAt:  c.ReservedAt,
		SoldAt:      c.SoldAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

// selectColumns é a projeção padrão, com as imagens agregadas em array.
const selectColumns = `
	p.id, p.seller_id, p.name, p.description, p.price, p.currency,
	p.category, p.status, p.quantity,
	COALESCE(array_agg(pi.url ORDER BY pi.position) FILTER (WHERE pi.url IS NOT NULL), '{}') AS images,
	COALESCE(p.qr_code_data, ''), COALESCE(p.qr_code_url, ''), p.view_count,
	p.reserved_by, p.reserved_at, p.sold_at, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (domain.Product, error) {
	var p domain.Product
	var amount decimal.Decimal
	var currency string
	var images pq.StringArray

	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &amount, &currency,
		&p.Category, &p.Status, &p.Quantity, &images,
		&p.QRCodeData, &p.QRCodeURL, &p.ViewCount,
		&p.ReservedBy, &p.ReservedAt, &p.SoldAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	price, err := domain.NewMoney(amount, currency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("preço inválido no banco: %w", err)
	}
	p.Price = price
	p.Images = images
	return p, nil
}

// Save grava o produto e suas imagens em uma transação.
func (r *Repository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao iniciar transação de produto", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, seller_id, name, description, price, currency, category,
		                      status, quantity, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.SellerID, p.Name, p.Description, p.Price.Amount(), p.Price.Currency(),
		p.Category, p.Status, p.Quantity, p.ViewCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao salvar produto", err)
	}

	if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
		return domain.Product{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao confirmar produto", err)
	}
	return p, nil
}

func insertImages(ctx context.Context, tx *sql.Tx, productID uuid.UUID, images []string) error {
	for i, url := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (product_id, url, position) VALUES ($1, $2, $3)`,
			productID, url, i,
		); err != nil {
			return apperror.NewDBError("falha ao salvar imagem do produto", err)
		}
	}
	return nil
}

// FindByID busca o produto: primeiro no cache, depois no Postgres (cache-aside).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	key := cacheKeyPrefix + id.String()

	if raw, err := r.cache.Get(ctx, key); err == nil {
		var c cachedProduct
		if jsonErr := json.Unmarshal([]byte(raw), &c); jsonErr == nil {
			if p, convErr := fromCached(c); convErr == nil {
				return p, nil
			}
		}
		// Entrada corrompida: descarta e segue para o banco.
		_ = r.cache.Delete(ctx, key)
	}

	p, err := r.findByIDFromDB(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if raw, err := json.Marshal(toCached(p)); err == nil {
		if setErr := r.cache.Set(ctx, key, string(raw), cacheTTL); setErr != nil {
			r.log.Warn("Falha ao popular cache de produto", map[string]interface{}{
				"product_id": id.String(),
				"error":      setErr.Error(),
			})
		}
	}
	return p, nil
}

func (r *Repository) findByIDFromDB(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE p.id = $1 AND p.deleted_at IS NULL
		GROUP BY p.id`,
		id,
	)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("produto %s", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao buscar produto", err)
	}
	return p, nil
}

// FindByQRToken localiza o produto pelo token do QR code.
func (r *Repository) FindByQRToken(ctx context.Context, token string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE p.qr_code_data = $1 AND p.deleted_at IS NULL
		GROUP BY p.id`,
		token,
	)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError("produto do QR code")
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao buscar produto por QR code", err)
	}
	return p, nil
}

// FindAll lista produtos com filtros, ordenação e paginação.
func (r *Repository) FindAll(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	where := []string{"p.deleted_at IS NULL"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SellerID != nil {
		where = append(where, "p.seller_id = "+arg(*filter.SellerID))
	} else {
		// Listagem pública: só produtos compráveis.
		where = append(where, "p.status = "+arg(string(domain.StatusAvailable)))
	}
	if filter.Category != "" {
		where = append(where, "p.category = "+arg(string(filter.Category)))
	}
	if filter.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*filter.MaxPrice))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", arg(pattern), arg(pattern)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT count(*) FROM products p WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao contar produtos", err)
	}

	orderBy := sortColumn(filter.SortBy)
	direction := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		direction = "ASC"
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE %s
		GROUP BY p.id
		ORDER BY %s %s
		LIMIT %s OFFSET %s`,
		selectColumns, whereClause, orderBy, direction, arg(filter.PageSize), arg(offset))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao listar produtos", err)
	}
	defer rows.Close()

	items := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return domain.ProductPage{}, apperror.NewDBError("falha ao ler produto da listagem", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao percorrer listagem de produtos", err)
	}

	return buildPage(items, total, filter.Page, filter.PageSize), nil
}

// sortColumn mapeia o parâmetro de ordenação para colunas reais,
// bloqueando injeção via ORDER BY.
func sortColumn(sortBy string) string {
	switch sortBy {
	case "price":
		return "p.price"
	case "views":
		return "p.view_count"
	default:
		return "p.created_at"
	}
}

func buildPage(items []domain.Product, total, page, pageSize int) domain.ProductPage {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return domain.ProductPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Search faz busca ranqueada sobre produtos disponíveis:
// match no nome pesa 2, match na descrição pesa 1.
func (r *Repository) Search(ctx context.Context, query string, page, pageSize int) (domain.ProductPage, error) {
	pattern := "%" + query + "%"

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM products p
		WHERE p.deleted_at IS NULL
		  AND p.status = 'available'
		  AND (p.name ILIKE $1 OR p.description ILIKE $1)`,
		pattern,
	).Scan(&total)
	if err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao contar resultados da busca", err)
	}

	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`,
		       (CASE WHEN p.name ILIKE $1 THEN 2 ELSE 0 END +
		        CASE WHEN p.description ILIKE $1 THEN 1 ELSE 0 END) AS rank
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE p.deleted_at IS NULL
		  AND p.status = 'available'
		  AND (p.name ILIKE $1 OR p.description ILIKE $1)
		GROUP BY p.id
		ORDER BY rank DESC, p.created_at DESC
		LIMIT $2 OFFSET $3`,
		pattern, pageSize, offset,
	)
	if err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao buscar produtos", err)
	}
	defer rows.Close()

	items := []domain.Product{}
	for rows.Next() {
		var rank int
		var p domain.Product
		var amount decimal.Decimal
		var currency string
		var images pq.StringArray

		err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &amount, &currency,
			&p.Category, &p.Status, &p.Quantity, &images,
			&p.QRCodeData, &p.QRCodeURL, &p.ViewCount,
			&p.ReservedBy, &p.ReservedAt, &p.SoldAt, &p.CreatedAt, &p.UpdatedAt, &rank)
		if err != nil {
			return domain.ProductPage{}, apperror.NewDBError("falha ao ler resultado da busca", err)
		}

		price, err := domain.NewMoney(amount, currency)
		if err != nil {
			return domain.ProductPage{}, apperror.NewDBError("preço inválido no banco", err)
		}
		p.Price = price
		p.Images = images
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProductPage{}, apperror.NewDBError("falha ao percorrer resultados da busca", err)
	}

	return buildPage(items, total, page, pageSize), nil
}

// Update regrava os campos mutáveis do produto e substitui as imagens,
// invalidando a entrada do cache.
func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewDBError("falha ao iniciar transação de atualização", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, currency = $5, category = $6,
		    status = $7, quantity = $8, qr_code_data = NULLIF($9, ''), qr_code_url = NULLIF($10, ''),
		    reserved_by = $11, reserved_at = $12, sold_at = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, p.Price.Amount(), p.Price.Currency(), p.Category,
		p.Status, p.Quantity, p.QRCodeData, p.QRCodeURL,
		p.ReservedBy, p.ReservedAt, p.SoldAt, p.UpdatedAt,
	)
	if err != nil {
		return apperror.NewDBError("falha ao atualizar produto", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar atualização do produto", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("produto %s", p.ID))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
		return apperror.NewDBError("falha ao substituir imagens do produto", err)
	}
	if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("falha ao confirmar atualização do produto", err)
	}

	r.Invalidate(ctx, p.ID)
	return nil
}

// SoftDelete marca o produto como removido e enfileira, na mesma transação,
// a limpeza dos objetos de imagem no storage.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, imagePaths []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewDBError("falha ao iniciar transação de remoção", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return apperror.NewDBError("falha ao remover produto", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar remoção do produto", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("produto %s", id))
	}

	for _, path := range imagePaths {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO storage_cleanup_queue (object_path) VALUES ($1)`, path,
		); err != nil {
			return apperror.NewDBError("falha ao enfileirar limpeza de imagem", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("falha ao confirmar remoção do produto", err)
	}

	r.Invalidate(ctx, id)
	return nil
}

// IncrementViewCount incrementa o contador de visualizações.
// Não invalida o cache: a contagem pode ficar eventualmente consistente.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products SET view_count = view_count + 1 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return apperror.NewDBError("falha ao incrementar visualizações", err)
	}
	return nil
}

// SetQRCode grava token e URL de imagem do QR code do produto.
func (r *Repository) SetQRCode(ctx context.Context, id uuid.UUID, data, imageURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET qr_code_data = $2, qr_code_url = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, data, imageURL,
	)
	if err != nil {
		return apperror.NewDBError("falha ao gravar QR code do produto", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar gravação do QR code", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("produto %s", id))
	}

	r.Invalidate(ctx, id)
	return nil
}

// Invalidate descarta a entrada de cache do produto. Exportado porque mudanças
// de status feitas por outros repositórios (compra e cancelamento de venda)
// também precisam derrubar a entrada. Falha no Redis só gera warning: o pior
// caso é servir o dado do Postgres na próxima leitura.
func (r *Repository) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, cacheKeyPrefix+id.String()); err != nil {
		r.log.Warn("Falha ao invalidar cache de produto", map[string]interface{}{
			"product_id": id.String(),
			"error":      err.Error(),
		})
	}
}
