package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"garagesale/internal/pkg/storage"
)

// TestMemory_PublicURLNormalizaBarraFinal testa que base URL com barra final
// não gera barra dupla nas URLs públicas.
func TestMemory_PublicURLNormalizaBarraFinal(t *testing.T) {
	comBarra := storage.NewMemory("https://cdn.test/")
	semBarra := storage.NewMemory("https://cdn.test")

	assert.Equal(t, "https://cdn.test/products/a/0.png", comBarra.PublicURL("products/a/0.png"))
	assert.Equal(t, semBarra.PublicURL("products/a/0.png"), comBarra.PublicURL("products/a/0.png"))
}

// TestMemory_UploadDelete testa o ciclo básico de guarda e remoção de objetos.
func TestMemory_UploadDelete(t *testing.T) {
	store := storage.NewMemory("https://cdn.test")

	url, err := store.Upload(context.Background(), "qrcodes/x.png", "image/png", []byte{0x89})
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.test/qrcodes/x.png", url)
	assert.True(t, store.Has("qrcodes/x.png"))

	assert.NoError(t, store.Delete(context.Background(), "qrcodes/x.png"))
	assert.False(t, store.Has("qrcodes/x.png"))
	assert.Error(t, store.Delete(context.Background(), "qrcodes/x.png"))
}
