// Package catalog contiene reglas de dominio del catálogo de productos.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxCodeLen = 32

// CodeFromName genera un código de producto a partir del nombre cuando no se informa uno:
// sin tildes, en mayúsculas y con guiones entre palabras ("Café Molido 500g" -> "CAFE-MOLIDO-500G").
func CodeFromName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}
	words := strings.FieldsFunc(strings.ToUpper(plain), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	code := strings.Join(words, "-")
	if len(code) > maxCodeLen {
		code = strings.TrimRight(code[:maxCodeLen], "-")
	}
	return code
}
