package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

var roster = []domain.Vehicle{
	{ID: "veh-1", Registration: "AB12 CDE"},
	{ID: "veh-2", Registration: "XY99ZZZ"},
	{ID: "veh-3", Registration: "lm 34 nop"},
}

func TestResolveVehicle_ExactMatch(t *testing.T) {
	id := ResolveVehicle("AB12 CDE", roster)

	require.NotNil(t, id)
	assert.Equal(t, "veh-1", *id)
}

func TestResolveVehicle_NormalizesWhitespaceAndCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ab12cde", "veh-1"},
		{"  AB 12 CDE  ", "veh-1"},
		{"xy99 zzz", "veh-2"},
		{"LM34NOP", "veh-3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id := ResolveVehicle(tt.input, roster)
			require.NotNil(t, id)
			assert.Equal(t, tt.want, *id)
		})
	}
}

func TestResolveVehicle_NoFuzzyMatching(t *testing.T) {
	// One character off must stay unresolved; a wrong guess is worse
	// than no match for a high-stakes identifier
	id := ResolveVehicle("AB12 CDF", roster)
	assert.Nil(t, id)
}

func TestResolveVehicle_UnresolvedIsNilNotError(t *testing.T) {
	assert.Nil(t, ResolveVehicle("UNKNOWN1", roster))
	assert.Nil(t, ResolveVehicle("", roster))
	assert.Nil(t, ResolveVehicle("   ", roster))
	assert.Nil(t, ResolveVehicle("AB12 CDE", nil))
}

func TestNormalizeRegistration(t *testing.T) {
	assert.Equal(t, "AB12CDE", NormalizeRegistration(" ab 12 cde "))
	assert.Equal(t, "", NormalizeRegistration("   "))
}
