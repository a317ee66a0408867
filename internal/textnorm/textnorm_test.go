package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents", "Validación Entrada", "VALIDACION ENTRADA"},
		{"spaces", "  Bono   bus\t10 ", "BONO BUS 10"},
		{"eñe", "Año", "ANO"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "BONOBUS10", Compact("Bono bus 10"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"A3223", "BILBAO", "GETXO"}, Tokens("A3223 Bilbao-Getxo"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Recarga monedero", "RECARGA"))
	assert.False(t, ContainsAny("Validación", "SALIDA", "ENTRADA"))
}
