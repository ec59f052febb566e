package profileservice

import (
	"context"

	"github.com/google/uuid"

	"garagesale/internal/domain"
	apperror "garagesale/internal/errors"
	"garagesale/internal/pkg/logger"
)

// ProfileRepository define o contrato de persistência de perfis.
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	Update(ctx context.Context, u domain.User) error
}

// Service implementa leitura e mutação de perfis.
type Service struct {
	repo ProfileRepository
	bus  domain.EventPublisher
	log  logger.Logger
}

// NewService cria o serviço de perfis.
func NewService(repo ProfileRepository, bus domain.EventPublisher, log logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Get carrega um perfil público.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.repo.FindProfileByID(ctx, id)
}

// UpdateInput agrupa os campos editáveis do perfil. Campos vazios são ignorados.
type UpdateInput struct {
	Name             string
	Phone            string
	StoreName        string
	StoreDescription string
	AvatarURL        string
}

// Update aplica a edição de perfil. Apenas o próprio usuário (ou admin) edita.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateInput) (domain.User, error) {
	if !actor.CanMutate(id) {
		return domain.User{}, apperror.NewForbiddenError("Você só pode editar o seu próprio perfil.")
	}

	if in.Phone != "" {
		phoneVO, err := domain.NewPhone(in.Phone)
		if err != nil {
			return domain.User{}, apperror.NewValidationError(err.Error())
		}
		in.Phone = phoneVO.Value()
	}

	user, err := s.repo.FindProfileByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if err := user.UpdateProfile(in.Name, in.Phone, in.StoreName, in.StoreDescription, in.AvatarURL); err != nil {
		return domain.User{}, apperror.NewValidationError(err.Error())
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.publish(user.PullEvents())
	return user, nil
}

// PromoteToSeller promove buyer→seller. O próprio usuário pede a promoção
// (virar vendedor é auto-serviço); admin também pode promover terceiros.
func (s *Service) PromoteToSeller(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.User, error) {
	if !actor.CanMutate(id) {
		return domain.User{}, apperror.NewForbiddenError("Você não pode promover outro usuário.")
	}

	user, err := s.repo.FindProfileByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if err := user.PromoteToSeller(); err != nil {
		return domain.User{}, apperror.NewConflictError(err.Error())
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.log.Info("Usuário promovido a vendedor", map[string]interface{}{
		"user_id": user.ID.String(),
	})
	s.publish(user.PullEvents())
	return user, nil
}

func (s *Service) publish(events []domain.Event) {
	for _, e := range events {
		s.bus.Publish(e)
	}
}
