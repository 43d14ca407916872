package model

import (
	"strings"
	"time"
)

type Patient struct {
	ID        int64  `json:"id"`
	Document  string `json:"documento"`
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
	BirthDate string `json:"fechaNacimiento"` // YYYY-MM-DD
	Token     string `json:"token,omitempty"`
}

// Summary returns the part of the patient cached between runs.
func (p Patient) Summary() PatientSummary {
	return PatientSummary{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
}

// PatientSummary is the minimal profile kept in the session store.
type PatientSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
}

func (s PatientSummary) Complete() bool {
	return s.ID != 0 && s.FirstName != "" && s.LastName != ""
}

func (s PatientSummary) Patient() *Patient {
	return &Patient{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName}
}

type Doctor struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
}

func (d Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type Status string

const (
	StatusAvailable Status = "Disponible"
	StatusBooked    Status = "Reservada"
	StatusCompleted Status = "Completada"
)

// Appointment is a bookable slot as returned by the scheduling service.
// It is never mutated locally.
type Appointment struct {
	ID        int64   `json:"id"`
	Specialty string  `json:"especialidad"`
	StartRaw  string  `json:"fechaHora"`
	Status    Status  `json:"estado"`
	DoctorID  int64   `json:"idmedico"`
	Doctor    *Doctor `json:"medico,omitempty"`
}

var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// StartsAt parses fechaHora. Zone-less values are read in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(a.StartRaw)
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Specialty is one of the fixed categories offered for booking.
type Specialty string

const (
	SpecialtyGeneral Specialty = "Medicina general"
	SpecialtyDental  Specialty = "Examen odontológico"
)

type SpecialtyInfo struct {
	ID          Specialty
	Code        string // short key for callback payloads
	Name        string
	Description string
}

var specialties = []SpecialtyInfo{
	{
		ID:          SpecialtyGeneral,
		Code:        "general",
		Name:        "Medicina General",
		Description: "Consulta médica general para diagnóstico y tratamiento",
	},
	{
		ID:          SpecialtyDental,
		Code:        "dental",
		Name:        "Examen Odontológico",
		Description: "Revisión dental y tratamientos odontológicos",
	},
}

func Specialties() []SpecialtyInfo {
	out := make([]SpecialtyInfo, len(specialties))
	copy(out, specialties)
	return out
}

func LookupSpecialty(s Specialty) (SpecialtyInfo, bool) {
	for _, info := range specialties {
		if info.ID == s {
			return info, true
		}
	}
	return SpecialtyInfo{}, false
}

func SpecialtyByCode(code string) (SpecialtyInfo, bool) {
	for _, info := range specialties {
		if info.Code == code {
			return info, true
		}
	}
	return SpecialtyInfo{}, false
}

// Response is the envelope shared by every scheduling service endpoint.
type Response[T any] struct {
	Message    string  `json:"message"`
	Content    *T      `json:"content"`
	StatusCode int     `json:"statusCode"`
	Error      *string `json:"error,omitempty"`
}

func (r Response[T]) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

type AuthRequest struct {
	DocumentID string `json:"documentId"`
	BirthDate  string `json:"birthDate"`
}

type BookingRequest struct {
	SlotID    int64 `json:"slotId"`
	PatientID int64 `json:"patientId"`
}
