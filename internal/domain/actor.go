package domain

import "github.com/google/uuid"

// Actor é o usuário autenticado da requisição atual (extraído das claims).
// É a entrada da avaliação de políticas: as row-level policies do desenho
// original viram verificações explícitas nos serviços.
type Actor struct {
	ID   uuid.UUID
	Role UserRole
}

// HasRole indica se o ator possui algum dos papéis exigidos.
func (a Actor) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin é um atalho para o papel admin.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns indica se o ator é o dono do recurso.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.ID == ownerID
}

// CanMutate avalia a política padrão de mutação: dono do recurso ou admin.
func (a Actor) CanMutate(ownerID uuid.UUID) bool {
	return a.Owns(ownerID) || a.IsAdmin()
}
