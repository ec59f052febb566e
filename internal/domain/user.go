package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
	RoleAdmin  UserRole = "admin"
)

// ValidRole indica se a string corresponde a um papel conhecido.
func ValidRole(r UserRole) bool {
	return r == RoleBuyer || r == RoleSeller || r == RoleAdmin
}

// User representa o perfil do usuário: o registro de aplicação que estende
// a identidade emitida na autenticação (mesma chave primária).
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	CPF              string     `json:"cpf"`
	Phone            string     `json:"phone"`
	Role             UserRole   `json:"role"`
	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	StoreName        string     `json:"store_name,omitempty"`
	StoreDescription string     `json:"store_description,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	eventRecorder
}

// Validate verifica os invariantes do perfil.
func (u *User) Validate() error {
	name := strings.TrimSpace(u.Name)
	if len(name) < 3 {
		return fmt.Errorf("nome deve ter pelo menos 3 caracteres")
	}
	if len(u.Name) > 100 {
		return fmt.Errorf("nome não pode exceder 100 caracteres")
	}
	if !ValidRole(u.Role) {
		return fmt.Errorf("papel inválido: %s", u.Role)
	}
	return nil
}

// PromoteToSeller move buyer→seller. A transição é monotônica:
// nunca regride e admin não é promovível.
func (u *User) PromoteToSeller() error {
	if u.Role == RoleAdmin {
		return fmt.Errorf("usuários admin não podem ser promovidos a vendedor")
	}
	if u.Role == RoleSeller {
		return fmt.Errorf("usuário já é vendedor")
	}
	u.Role = RoleSeller
	u.touch()
	u.record("UserPromotedToSeller", u.ID, nil)
	return nil
}

// CanSell indica se o usuário pode criar/gerenciar produtos.
func (u *User) CanSell() bool {
	return (u.Role == RoleSeller || u.Role == RoleAdmin) && u.IsActive
}

// CanBuy indica se o usuário pode comprar.
func (u *User) CanBuy() bool {
	return u.IsActive
}

// UpdateProfile atualiza os campos editáveis do perfil. Campos vazios são ignorados.
func (u *User) UpdateProfile(name, phone, storeName, storeDescription, avatarURL string) error {
	if name != "" {
		u.Name = name
	}
	if phone != "" {
		u.Phone = phone
	}
	if storeName != "" {
		u.StoreName = storeName
	}
	if storeDescription != "" {
		u.StoreDescription = storeDescription
	}
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	u.touch()
	if err := u.Validate(); err != nil {
		return err
	}
	u.record("UserProfileUpdated", u.ID, nil)
	return nil
}

// Activate reativa a conta.
func (u *User) Activate() {
	u.IsActive = true
	u.touch()
	u.record("UserActivated", u.ID, nil)
}

// Deactivate desativa a conta (bloqueia compra e venda).
func (u *User) Deactivate() {
	u.IsActive = false
	u.touch()
	u.record("UserDeactivated", u.ID, nil)
}

// VerifyEmail marca o email como verificado.
func (u *User) VerifyEmail() {
	u.IsVerified = true
	u.touch()
	u.record("EmailVerified", u.ID, nil)
}

// RecordLogin atualiza o timestamp do último login.
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLogin = &now
	u.touch()
}

func (u *User) touch() {
	u.UpdatedAt = time.Now().UTC()
}

// Identity é o registro de credenciais gerenciado pelo fluxo de autenticação.
// O perfil (User) estende este registro com a mesma chave primária.
type Identity struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string `json:"-"` // nunca serializado em respostas
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
}
