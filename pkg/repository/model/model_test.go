package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointment_StartsAt(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)

	tests := []struct {
		name string
		raw  string
		ok   bool
		want time.Time
	}{
		{"rfc3339", "2025-03-10T14:30:00Z", true, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"zone-less", "2025-03-10T09:00:00", true, time.Date(2025, 3, 10, 9, 0, 0, 0, bogota)},
		{"space separated", "2025-03-10 09:00:00", true, time.Date(2025, 3, 10, 9, 0, 0, 0, bogota)},
		{"garbage", "mañana", false, time.Time{}},
		{"empty", "", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Appointment{StartRaw: tt.raw}.StartsAt(bogota)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestSpecialtyLookup(t *testing.T) {
	info, ok := LookupSpecialty("Medicina general")
	require.True(t, ok)
	assert.Equal(t, "general", info.Code)

	byCode, ok := SpecialtyByCode("dental")
	require.True(t, ok)
	assert.Equal(t, SpecialtyDental, byCode.ID)

	_, ok = LookupSpecialty("Cardiología")
	assert.False(t, ok)
}

func TestSpecialtiesIsACopy(t *testing.T) {
	list := Specialties()
	list[0].Name = "changed"
	assert.Equal(t, "Medicina General", Specialties()[0].Name)
}

func TestPatientSummary(t *testing.T) {
	p := Patient{ID: 4, Document: "12345678", FirstName: "Ana", LastName: "Gómez", Token: "x"}
	s := p.Summary()

	assert.True(t, s.Complete())
	assert.Equal(t, PatientSummary{ID: 4, FirstName: "Ana", LastName: "Gómez"}, s)
	assert.False(t, PatientSummary{ID: 4, FirstName: "Ana"}.Complete())
	assert.Equal(t, int64(4), s.Patient().ID)
}
