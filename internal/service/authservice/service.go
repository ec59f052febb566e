package authservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/token"
)

// Mensagem de login com email pendente de confirmação. O texto é contrato
// de API: clientes fazem match exato para exibir o fluxo de reenvio.
const msgEmailNotConfirmed = "Email not confirmed"

// ProfileRepository define o contrato que este serviço espera da persistência
// de identidades e perfis.
type ProfileRepository interface {
	Register(ctx context.Context, identity domain.Identity, profile domain.User, cpfProvided bool) error
	FindIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)
	FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

// TokenIssuer é o subconjunto do serviço de tokens usado aqui.
type TokenIssuer interface {
	GeneratePair(userID string, userRole string) (token.Pair, error)
	ValidateRefreshToken(tokenString string) (*token.CustomClaims, error)
}

// Service implementa cadastro, login e refresh de sessão.
type Service struct {
	repo           ProfileRepository
	tokens         TokenIssuer
	bus            domain.EventPublisher
	log            logger.Logger
	requireConfirm bool
}

// NewService cria o serviço de autenticação. requireConfirm controla se o
// login exige email confirmado.
func NewService(repo ProfileRepository, tokens TokenIssuer, bus domain.EventPublisher, log logger.Logger, requireConfirm bool) *Service {
	return &Service{
		repo:           repo,
		tokens:         tokens,
		bus:            bus,
		log:            log,
		requireConfirm: requireConfirm,
	}
}

// Register cria a identidade e provisiona o perfil. Nome, CPF e telefone são
// opcionais: CPF e telefone ausentes entram como placeholders derivados do ID
// da conta; nome ausente ou curto demais cai para a parte local do email e,
// em último caso, para o placeholder. CPF e telefone INFORMADOS são validados
// e rejeitam o cadastro se inválidos.
// A role segue a mesma regra de saneamento: ausente ou fora de {buyer, seller},
// vira buyer — admin não é auto-atribuível no cadastro.
func (s *Service) Register(ctx context.Context, email, password, name, cpf, phone, role string) (domain.User, error) {
	emailVO, err := domain.NewEmail(email)
	if err != nil {
		return domain.User{}, apperror.NewValidationError(err.Error())
	}
	if len(password) < 8 {
		return domain.User{}, apperror.NewValidationError("A senha deve ter pelo menos 8 caracteres.")
	}

	id := uuid.New()

	cpfProvided := cpf != ""
	if cpfProvided {
		cpfVO, err := domain.NewCPF(cpf)
		if err != nil {
			return domain.User{}, apperror.NewValidationError(err.Error())
		}
		cpf = cpfVO.Value()
	} else {
		cpf = placeholderCPF(id)
	}

	if phone != "" {
		phoneVO, err := domain.NewPhone(phone)
		if err != nil {
			return domain.User{}, apperror.NewValidationError(err.Error())
		}
		phone = phoneVO.Value()
	} else {
		phone = placeholderPhone(id)
	}

	// Nome nunca rejeita o cadastro: vazio ou curto demais, cai para a
	// parte local do email; se ela também for curta, entra o placeholder.
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		if local := emailVO.LocalPart(); len(local) >= 3 {
			name = local
		} else {
			name = placeholderName(id)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("falha ao gerar hash da senha", err)
	}

	now := time.Now().UTC()
	identity := domain.Identity{
		ID:           id,
		Email:        emailVO.Value(),
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if !s.requireConfirm {
		// Sem verificação de email configurada, a conta nasce confirmada.
		identity.EmailConfirmedAt = &now
	}

	profileRole := domain.RoleBuyer
	if domain.UserRole(role) == domain.RoleSeller {
		profileRole = domain.RoleSeller
	}

	profile := domain.User{
		ID:         id,
		Email:      emailVO.Value(),
		Name:       name,
		CPF:        cpf,
		Phone:      phone,
		Role:       profileRole,
		IsActive:   true,
		IsVerified: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := profile.Validate(); err != nil {
		return domain.User{}, apperror.NewValidationError(err.Error())
	}

	if err := s.repo.Register(ctx, identity, profile, cpfProvided); err != nil {
		return domain.User{}, err
	}

	s.log.Info("Novo usuário cadastrado", map[string]interface{}{
		"user_id": id.String(),
		"email":   emailVO.Value(),
	})
	s.bus.Publish(domain.Event{
		Name:       "UserRegistered",
		EntityID:   id,
		OccurredAt: now,
	})
	return profile, nil
}

// Login autentica credenciais e emite o par de tokens.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, token.Pair, error) {
	emailVO, err := domain.NewEmail(email)
	if err != nil {
		return domain.User{}, token.Pair{}, apperror.NewValidationError(err.Error())
	}

	identity, err := s.repo.FindIdentityByEmail(ctx, emailVO.Value())
	if err != nil {
		// Credencial inexistente não vaza: mesma mensagem do hash incorreto.
		if appErr, ok := err.(apperror.AppError); ok && appErr.HTTPStatus() == 404 {
			return domain.User{}, token.Pair{}, apperror.NewUnauthorizedError("Email ou senha incorretos.")
		}
		return domain.User{}, token.Pair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return domain.User{}, token.Pair{}, apperror.NewUnauthorizedError("Email ou senha incorretos.")
	}

	if s.requireConfirm && identity.EmailConfirmedAt == nil {
		return domain.User{}, token.Pair{}, apperror.NewUnauthorizedError(msgEmailNotConfirmed)
	}

	profile, err := s.repo.FindProfileByID(ctx, identity.ID)
	if err != nil {
		return domain.User{}, token.Pair{}, err
	}
	if !profile.IsActive {
		return domain.User{}, token.Pair{}, apperror.NewForbiddenError("Conta desativada.")
	}

	pair, err := s.tokens.GeneratePair(profile.ID.String(), string(profile.Role))
	if err != nil {
		return domain.User{}, token.Pair{}, apperror.NewInternalError("falha ao emitir tokens", err)
	}

	profile.RecordLogin()
	if err := s.repo.RecordLogin(ctx, profile.ID); err != nil {
		// Auditoria de login não bloqueia a sessão.
		s.log.Warn("Falha ao registrar last_login", map[string]interface{}{
			"user_id": profile.ID.String(),
			"error":   err.Error(),
		})
	}
	return profile, pair, nil
}

// Refresh valida um refresh token e emite um novo par. A role é relida do
// perfil: promoções a seller passam a valer no próximo refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return token.Pair{}, apperror.NewUnauthorizedError("Refresh token inválido ou expirado.")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return token.Pair{}, apperror.NewUnauthorizedError("Refresh token com identificador inválido.")
	}

	profile, err := s.repo.FindProfileByID(ctx, id)
	if err != nil {
		return token.Pair{}, err
	}
	if !profile.IsActive {
		return token.Pair{}, apperror.NewForbiddenError("Conta desativada.")
	}

	pair, err := s.tokens.GeneratePair(profile.ID.String(), string(profile.Role))
	if err != nil {
		return token.Pair{}, apperror.NewInternalError("falha ao emitir tokens", err)
	}
	return pair, nil
}

// CurrentUser carrega o perfil do usuário autenticado.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.repo.FindProfileByID(ctx, id)
}
