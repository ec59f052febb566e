package profilerepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
)

// Código de erro do Postgres para violação de constraint UNIQUE.
const pqUniqueViolation = "23505"

// Repository persiste identidades (auth_users) e perfis (profiles) no Postgres.
// As duas tabelas compartilham a mesma chave primária: o perfil estende a identidade.
type Repository struct {
	db  *sql.DB
	log logger.Logger
}

// NewRepository cria o repositório de perfis.
func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Register cria a identidade e provisiona o perfil na MESMA transação.
//
// O INSERT do perfil roda dentro de um SAVEPOINT: se falhar por motivo
// residual (e.g. CPF placeholder colidindo), a transação volta ao savepoint
// e a identidade é gravada mesmo assim. A exceção é CPF INFORMADO pelo
// usuário batendo no UNIQUE de profiles.cpf: engolir deixaria uma conta
// sem perfil, incapaz de logar — esse caso aborta o cadastro com 409.
func (r *Repository) Register(ctx context.Context, identity domain.Identity, profile domain.User, cpfProvided bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.NewDBError("falha ao iniciar transação de cadastro", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO auth_users (id, email, password_hash, email_confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.Email, identity.PasswordHash, identity.EmailConfirmedAt, identity.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperror.NewConflictError("Já existe uma conta cadastrada com este email.")
		}
		return apperror.NewDBError("falha ao criar identidade", err)
	}

	if _, err = tx.ExecContext(ctx, "SAVEPOINT provision_profile"); err != nil {
		return apperror.NewDBError("falha ao criar savepoint de provisionamento", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, email, name, cpf, phone, role, is_active, is_verified,
		                      store_name, store_description, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at`,
		profile.ID, profile.Email, profile.Name, profile.CPF, profile.Phone, profile.Role,
		profile.IsActive, profile.IsVerified, profile.StoreName, profile.StoreDescription,
		profile.AvatarURL, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if conflict := cpfConflict(err, cpfProvided); conflict != nil {
			// Aborta a transação inteira: identidade sem perfil não loga.
			return conflict
		}
		// Volta ao savepoint e segue: a identidade ainda será gravada.
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT provision_profile"); rbErr != nil {
			return apperror.NewDBError("falha ao reverter savepoint de provisionamento", rbErr)
		}
		r.log.Warn("Provisionamento de perfil falhou; identidade criada sem perfil", map[string]interface{}{
			"user_id": identity.ID.String(),
			"error":   err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("falha ao confirmar transação de cadastro", err)
	}
	return nil
}

// cpfConflict classifica a falha do INSERT do perfil: violação de UNIQUE
// no CPF com valor informado pelo usuário vira conflito; o resto é engolido
// pelo savepoint.
func cpfConflict(err error, cpfProvided bool) error {
	if !cpfProvided {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && strings.Contains(pqErr.Constraint, "cpf") {
		return apperror.NewConflictError("Já existe uma conta cadastrada com este CPF.")
	}
	return nil
}

// FindIdentityByEmail localiza a identidade pelas credenciais de login.
func (r *Repository) FindIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var identity domain.Identity
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, email_confirmed_at, created_at
		FROM auth_users
		WHERE email = $1`,
		email,
	).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.EmailConfirmedAt, &identity.CreatedAt)

	if err == sql.ErrNoRows {
		return domain.Identity{}, apperror.NewNotFoundError(fmt.Sprintf("identidade com email %s", email))
	}
	if err != nil {
		return domain.Identity{}, apperror.NewDBError("falha ao buscar identidade", err)
	}
	return identity, nil
}

// FindProfileByID carrega o perfil do usuário.
func (r *Repository) FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	var storeName, storeDescription, avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, cpf, phone, role, is_active, is_verified,
		       store_name, store_description, avatar_url, last_login, created_at, updated_at
		FROM profiles
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CPF, &u.Phone, &u.Role, &u.IsActive, &u.IsVerified,
		&storeName, &storeDescription, &avatarURL, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("perfil %s", id))
	}
	if err != nil {
		return domain.User{}, apperror.NewDBError("falha ao buscar perfil", err)
	}

	u.StoreName = storeName.String
	u.StoreDescription = storeDescription.String
	u.AvatarURL = avatarURL.String
	return u, nil
}

// Update grava os campos mutáveis do perfil (dados editáveis, papel e último login).
func (r *Repository) Update(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $2, phone = $3, role = $4, is_active = $5, is_verified = $6,
		    store_name = $7, store_description = $8, avatar_url = $9,
		    last_login = $10, updated_at = $11
		WHERE id = $1`,
		u.ID, u.Name, u.Phone, u.Role, u.IsActive, u.IsVerified,
		u.StoreName, u.StoreDescription, u.AvatarURL, u.LastLogin, u.UpdatedAt,
	)
	if err != nil {
		return apperror.NewDBError("falha ao atualizar perfil", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar atualização do perfil", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("perfil %s", u.ID))
	}
	return nil
}

// RecordLogin atualiza apenas o last_login, sem tocar os demais campos.
func (r *Repository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET last_login = now(), updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("falha ao registrar login", err)
	}
	return nil
}
