package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownIncidentType(t *testing.T) {
	for _, label := range IncidentTypes() {
		assert.True(t, KnownIncidentType(label), label)
	}
	assert.True(t, KnownIncidentType("  Anulación de póliza  "), "surrounding whitespace tolerated")
	assert.False(t, KnownIncidentType("Consulta astrológica"))
	assert.False(t, KnownIncidentType("anulación de póliza"), "taxonomy labels are case-exact")
	assert.False(t, KnownIncidentType(""))
}

func TestNormalizeRamo(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"hogar", RamoHogar},
		{"Vivienda", RamoHogar},
		{"COCHE", RamoCoche},
		{"automóvil", RamoCoche},
		{"moto", RamoCoche},
		{"vida", RamoVida},
		{" salud ", RamoSalud},
		{"DECESOS", RamoDecesos},
		{"embarcaciones", RamoOtros},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRamo(tt.raw), tt.raw)
	}
}
