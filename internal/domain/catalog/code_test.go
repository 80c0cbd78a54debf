package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ventas-api/internal/domain/catalog"
)

func TestCodeFromName(t *testing.T) {
	cases := map[string]string{
		"Café Molido 500g":      "CAFE-MOLIDO-500G",
		"  azúcar   morena ":    "AZUCAR-MORENA",
		"Piñata (grande)":       "PINATA-GRANDE",
		"":                      "",
		"Ñandú & Cía. / Lote 7": "NANDU-CIA-LOTE-7",
	}
	for in, want := range cases {
		assert.Equal(t, want, catalog.CodeFromName(in), "entrada %q", in)
	}
}

func TestCodeFromName_Trunca(t *testing.T) {
	got := catalog.CodeFromName("Detergente liquido concentrado para ropa de color 3 litros")
	assert.LessOrEqual(t, len(got), 32)
	assert.NotEqual(t, '-', rune(got[len(got)-1]))
}
