package authservice

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// Placeholders de provisionamento: quando o cadastro não traz nome, CPF ou
// telefone, o perfil é criado mesmo assim com valores sintéticos derivados do
// ID da conta. A derivação é determinística (mesmo ID, mesmo placeholder) e o
// hash do UUID inteiro torna colisões entre contas improváveis.

// placeholderName monta um nome legível com sufixo curto do ID.
func placeholderName(id uuid.UUID) string {
	return "Usuario " + id.String()[:8]
}

// placeholderCPF deriva 9 dígitos do hash do ID e calcula os dois dígitos
// verificadores, produzindo um CPF sintático e algoritmicamente válido.
func placeholderCPF(id uuid.UUID) string {
	base := fmt.Sprintf("%09d", hashUUID(id)%1_000_000_000)

	digits := make([]int, 11)
	for i := 0; i < 9; i++ {
		digits[i] = int(base[i] - '0')
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	digits[9] = (sum * 10 % 11) % 10

	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	digits[10] = (sum * 10 % 11) % 10

	out := make([]byte, 11)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out)
}

// placeholderPhone deriva um celular com DDD 11 (sempre válido) e 8 dígitos
// do hash: "119" + XXXXXXXX, no formato móvel de 11 dígitos.
func placeholderPhone(id uuid.UUID) string {
	return fmt.Sprintf("119%08d", hashUUID(id)%100_000_000)
}

// hashUUID aplica FNV-64a sobre a representação textual completa do UUID.
func hashUUID(id uuid.UUID) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id.String()))
	return h.Sum64()
}
