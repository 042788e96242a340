package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLocationName ubicación usada cuando el registro V1 no tiene bodega.
const DefaultLocationName = "Geral"

// NormalizeName recorta espacios y normaliza a NFC, para que "Almacén" compuesto y descompuesto
// deriven el mismo ID.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// DeriveCatalogID ID de catálogo a partir de código SAP y nombre.
func DeriveCatalogID(sapCode, name string) string {
	return "CAT-" + shortHash(NormalizeName(sapCode)+"|"+NormalizeName(name))
}

// DeriveLocationID ID de ubicación a partir de su nombre normalizado.
func DeriveLocationID(name string) string {
	name = NormalizeName(name)
	if name == "" {
		name = DefaultLocationName
	}
	return "LOC-" + shortHash(name)
}

// LegacyBatchID ID de lote para un item V1 promovido.
func LegacyBatchID(itemID string) string { return "BAT-" + itemID }

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(h[:8]))
}
