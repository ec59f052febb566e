package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Storage é a capacidade de armazenamento de objetos (imagens, QR codes)
// usada pelos serviços. Abstraída em interface para que a camada de serviço
// seja testável sem um object store real.
type Storage interface {
	Upload(ctx context.Context, path string, contentType string, data []byte) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, path string) error
}

// Memory é uma implementação em memória, usada em testes.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemory cria um storage em memória. A barra final da base URL é
// normalizada para que PublicURL nunca produza barra dupla.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload guarda o objeto e retorna sua URL pública.
func (m *Memory) Upload(_ context.Context, path string, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return m.PublicURL(path), nil
}

// PublicURL monta a URL pública do objeto.
func (m *Memory) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, path)
}

// Delete remove o objeto.
func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("objeto não encontrado: %s", path)
	}
	delete(m.objects, path)
	return nil
}

// Has indica se um objeto existe (auxiliar de teste).
func (m *Memory) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}
