package pipeline

import (
	"strings"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// NormalizeRegistration strips all whitespace from a registration and
// upper-cases it, so "ab12 cde" and "AB12CDE" compare equal.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.Join(strings.Fields(reg), ""))
}

// ResolveVehicle resolves a free-text registration against the known
// roster using normalized exact matching only. Registrations are
// high-stakes identifiers: a wrong guess is worse than unresolved, so
// no fuzzy fallback is attempted and a miss returns nil, not an error.
func ResolveVehicle(registration string, knownVehicles []domain.Vehicle) *string {
	normalized := NormalizeRegistration(registration)
	if normalized == "" {
		return nil
	}

	for _, v := range knownVehicles {
		if NormalizeRegistration(v.Registration) == normalized {
			id := v.ID
			return &id
		}
	}
	return nil
}
