package authservice_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/eventbus"
	"garagesale/internal/pkg/logger"
	"garagesale/internal/pkg/token"
	"garagesale/internal/service/authservice"
)

// MockProfileRepository é uma implementação mock da interface ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Register(ctx context.Context, identity domain.Identity, profile domain.User, cpfProvided bool) error {
	args := m.Called(ctx, identity, profile, cpfProvided)
	return args.Error(0)
}

func (m *MockProfileRepository) FindIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *MockProfileRepository) FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockProfileRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenIssuer é uma implementação mock da interface TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GeneratePair(userID string, userRole string) (token.Pair, error) {
	args := m.Called(userID, userRole)
	return args.Get(0).(token.Pair), args.Error(1)
}

func (m *MockTokenIssuer) ValidateRefreshToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

func newAuthService(repo *MockProfileRepository, tokens *MockTokenIssuer, requireConfirm bool) *authservice.Service {
	log := logger.NewLogger("debug")
	bus := eventbus.NewBus(log)
	return authservice.NewService(repo, tokens, bus, log, requireConfirm)
}

// TestRegister_ComDadosCompletos testa o cadastro com todos os campos informados.
func TestRegister_ComDadosCompletos(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("Register", mock.Anything, mock.Anything, mock.Anything, true).Return(nil)

	user, err := svc.Register(context.Background(), "Ana@Example.com", "senhaforte", "Ana Souza", "529.982.247-25", "(11) 98765-4321", "seller")

	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana Souza", user.Name)
	assert.Equal(t, "52998224725", user.CPF)
	assert.Equal(t, "11987654321", user.Phone)
	assert.Equal(t, domain.RoleSeller, user.Role)
	assert.True(t, user.IsActive)
	repo.AssertExpectations(t)
}

// TestRegister_SemPerfilUsaPlaceholders testa o cadastro só com email e senha:
// o perfil é provisionado com nome, CPF e telefone sintéticos válidos.
func TestRegister_SemPerfilUsaPlaceholders(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("Register", mock.Anything, mock.Anything, mock.Anything, false).Return(nil)

	// Parte local do email curta demais: o nome cai para o placeholder.
	user, err := svc.Register(context.Background(), "ab@example.com", "senhaforte", "", "", "", "")

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.Name, "Usuario "))

	// O CPF placeholder tem 11 dígitos e passa no algoritmo dos verificadores.
	assert.Regexp(t, regexp.MustCompile(`^\d{11}$`), user.CPF)
	_, err = domain.NewCPF(user.CPF)
	assert.NoError(t, err)

	// O telefone placeholder é um celular com DDD 11.
	assert.Regexp(t, regexp.MustCompile(`^119\d{8}$`), user.Phone)
	_, err = domain.NewPhone(user.Phone)
	assert.NoError(t, err)

	// Role ausente (ou inválida) vira buyer; admin não é auto-atribuível.
	assert.Equal(t, domain.RoleBuyer, user.Role)

	admin, err := svc.Register(context.Background(), "esperto@example.com", "senhaforte", "", "", "", "admin")
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleBuyer, admin.Role)

	repo.AssertExpectations(t)
}

// TestRegister_CampoInformadoInvalidoRejeita testa que campos informados
// (diferente de ausentes) são validados e bloqueiam o cadastro.
func TestRegister_CampoInformadoInvalidoRejeita(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	_, err := svc.Register(context.Background(), "x@example.com", "senhaforte", "", "11111111111", "", "")
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "x@example.com", "senhaforte", "", "", "000", "")
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "email-invalido", "senhaforte", "", "", "", "")
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "x@example.com", "curta", "", "", "", "")
	assert.Error(t, err)

	// Nenhum caso chegou ao repositório.
	repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestRegister_NomeCurtoCaiParaLocalPart testa a cadeia de fallback do nome:
// vazio ou com menos de 3 caracteres, entra a parte local do email — nome
// curto nunca bloqueia o cadastro.
func TestRegister_NomeCurtoCaiParaLocalPart(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("Register", mock.Anything, mock.Anything, mock.Anything, false).Return(nil)

	user, err := svc.Register(context.Background(), "joaosilva@example.com", "senhaforte", "", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "joaosilva", user.Name)

	user, err = svc.Register(context.Background(), "joaosilva@example.com", "senhaforte", "Jo", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "joaosilva", user.Name)

	// Nome com 3+ caracteres é respeitado.
	user, err = svc.Register(context.Background(), "joaosilva@example.com", "senhaforte", "Ana", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
}

// TestRegister_CPFDuplicado testa que o conflito de CPF informado sobe para
// o chamador em vez de criar uma conta sem perfil.
func TestRegister_CPFDuplicado(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("Register", mock.Anything, mock.Anything, mock.Anything, true).
		Return(apperror.NewConflictError("Já existe uma conta cadastrada com este CPF."))

	_, err := svc.Register(context.Background(), "outra@example.com", "senhaforte", "", "529.982.247-25", "", "")

	assert.Error(t, err)
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus())
	repo.AssertExpectations(t)
}

// TestRegister_EmailDuplicado testa o conflito de email propagado do repositório.
func TestRegister_EmailDuplicado(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperror.NewConflictError("Já existe uma conta cadastrada com este email."))

	_, err := svc.Register(context.Background(), "dup@example.com", "senhaforte", "", "", "", "")

	assert.Error(t, err)
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus())
}

func identityWithPassword(t *testing.T, email, password string, confirmed bool) domain.Identity {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)

	identity := domain.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if confirmed {
		now := time.Now().UTC()
		identity.EmailConfirmedAt = &now
	}
	return identity
}

// TestLogin_Sucesso testa o fluxo completo de login.
func TestLogin_Sucesso(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	identity := identityWithPassword(t, "ana@example.com", "senhaforte", true)
	profile := domain.User{ID: identity.ID, Email: identity.Email, Name: "Ana Souza", Role: domain.RoleBuyer, IsActive: true}

	repo.On("FindIdentityByEmail", mock.Anything, "ana@example.com").Return(identity, nil)
	repo.On("FindProfileByID", mock.Anything, identity.ID).Return(profile, nil)
	repo.On("RecordLogin", mock.Anything, identity.ID).Return(nil)
	tokens.On("GeneratePair", identity.ID.String(), "buyer").
		Return(token.Pair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer", ExpiresIn: 3600}, nil)

	user, pair, err := svc.Login(context.Background(), "ana@example.com", "senhaforte")

	assert.NoError(t, err)
	assert.Equal(t, identity.ID, user.ID)
	assert.Equal(t, "acc", pair.AccessToken)
	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

// TestLogin_CredenciaisInvalidas testa que email inexistente e senha errada
// produzem a mesma resposta 401.
func TestLogin_CredenciaisInvalidas(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	repo.On("FindIdentityByEmail", mock.Anything, "naoexiste@example.com").
		Return(domain.Identity{}, apperror.NewNotFoundError("identidade"))

	_, _, err := svc.Login(context.Background(), "naoexiste@example.com", "qualquer1")
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 401, appErr.HTTPStatus())

	identity := identityWithPassword(t, "ana@example.com", "senhaforte", true)
	repo.On("FindIdentityByEmail", mock.Anything, "ana@example.com").Return(identity, nil)

	_, _, err = svc.Login(context.Background(), "ana@example.com", "senhaerrada")
	appErr, ok = err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 401, appErr.HTTPStatus())
}

// TestLogin_EmailNaoConfirmado testa o bloqueio de login com email pendente.
func TestLogin_EmailNaoConfirmado(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, true)

	identity := identityWithPassword(t, "ana@example.com", "senhaforte", false)
	repo.On("FindIdentityByEmail", mock.Anything, "ana@example.com").Return(identity, nil)

	_, _, err := svc.Login(context.Background(), "ana@example.com", "senhaforte")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Email not confirmed")
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 401, appErr.HTTPStatus())
}

// TestLogin_ContaDesativada testa o bloqueio de conta inativa.
func TestLogin_ContaDesativada(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	identity := identityWithPassword(t, "ana@example.com", "senhaforte", true)
	profile := domain.User{ID: identity.ID, Role: domain.RoleBuyer, IsActive: false}

	repo.On("FindIdentityByEmail", mock.Anything, "ana@example.com").Return(identity, nil)
	repo.On("FindProfileByID", mock.Anything, identity.ID).Return(profile, nil)

	_, _, err := svc.Login(context.Background(), "ana@example.com", "senhaforte")
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 403, appErr.HTTPStatus())
}

// TestRefresh_ReleARoleAtual testa que o refresh relê a role do perfil.
func TestRefresh_ReleARoleAtual(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	userID := uuid.New()
	claims := &token.CustomClaims{UserID: userID.String(), Role: "buyer", TokenUse: token.TypeRefresh}
	// Perfil já promovido a seller desde a emissão do refresh token.
	profile := domain.User{ID: userID, Role: domain.RoleSeller, IsActive: true}

	tokens.On("ValidateRefreshToken", "refresh-token").Return(claims, nil)
	repo.On("FindProfileByID", mock.Anything, userID).Return(profile, nil)
	tokens.On("GeneratePair", userID.String(), "seller").
		Return(token.Pair{AccessToken: "novo", TokenType: "bearer"}, nil)

	pair, err := svc.Refresh(context.Background(), "refresh-token")

	assert.NoError(t, err)
	assert.Equal(t, "novo", pair.AccessToken)
	tokens.AssertExpectations(t)
}

// TestRefresh_TokenInvalido testa a rejeição de refresh token inválido.
func TestRefresh_TokenInvalido(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newAuthService(repo, tokens, false)

	tokens.On("ValidateRefreshToken", "ruim").Return(nil, assert.AnError)

	_, err := svc.Refresh(context.Background(), "ruim")
	appErr, ok := err.(apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, 401, appErr.HTTPStatus())
}
