package wizard

import "github.com/napryag/clinic_booking_bot/pkg/repository/model"

type Step int

const (
	StepAuth Step = iota
	StepSpecialty
	StepAppointments
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepAuth:
		return "auth"
	case StepSpecialty:
		return "specialty"
	case StepAppointments:
		return "appointments"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// State is the single pointer through the wizard. Step is the tag; Patient
// is set from StepSpecialty on and Specialty from StepAppointments on.
type State struct {
	Step      Step
	Patient   *model.Patient
	Specialty model.Specialty
}

var StepLabels = []string{"Autenticación", "Especialidad", "Selección de Cita"}

// Progress returns the 1-based position shown in the progress line.
func (s State) Progress() int {
	switch s.Step {
	case StepAuth:
		return 1
	case StepSpecialty:
		return 2
	default:
		return len(StepLabels)
	}
}

const (
	MsgInvalidForm     = "Documento o fecha de nacimiento inválidos."
	MsgPatientNotFound = "No se encontró un paciente con los datos proporcionados."
	MsgAuthFailed      = "Error al verificar los datos. Intente nuevamente."
	MsgNoSlots         = "No se encontraron citas disponibles para la especialidad seleccionada."
	MsgSlotsFailed     = "Error al cargar las citas disponibles"
	MsgBookingFailed   = "Error al reservar la cita. Intente nuevamente."
)
