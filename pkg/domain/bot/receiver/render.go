package receiver

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/pager"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/wizard"
	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
)

const (
	TextUseButtons = "Por favor, use los botones 👆"
	TextStale      = "Esta acción ya no está disponible"
	TextLoading    = "Cargando…"
)

// ---------- UI builders ----------

func backButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData("⬅️ Volver", CbBack)
}

func logoutButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData("🚪 Cerrar sesión", CbLogout)
}

func StartMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("COMENZAR", CbStart)),
	)
}

func SpecialtyMenu() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, sp := range model.Specialties() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(sp.Name, PSpecialty+sp.Code),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(backButton(), logoutButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func SlotsMenu(p *pager.Pager[model.Appointment]) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, slot := range p.CurrentItems() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(SlotLabel(slot), SlotKey(slot.ID)),
		))
	}
	rows = append(rows, PaginationRows(p)...)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(backButton(), logoutButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// PaginationRows renders page numbers on one row and the step controls
// («10 ‹ › 10») on another. A single page renders nothing.
func PaginationRows(p *pager.Pager[model.Appointment]) [][]tgbotapi.InlineKeyboardButton {
	total := p.TotalPages()
	if total <= 1 {
		return nil
	}
	cur := p.Current()
	w := p.Window()

	var pages []tgbotapi.InlineKeyboardButton
	if w.ShowFirst {
		label := "1"
		if w.LeadingGap {
			label = "1 …"
		}
		pages = append(pages, tgbotapi.NewInlineKeyboardButtonData(label, PageKey(1)))
	}
	for _, n := range w.Pages {
		label := strconv.Itoa(n)
		data := PageKey(n)
		if n == cur {
			label = "[" + label + "]"
			data = CbNoop
		}
		pages = append(pages, tgbotapi.NewInlineKeyboardButtonData(label, data))
	}
	if w.ShowLast {
		label := strconv.Itoa(total)
		if w.TrailingGap {
			label = "… " + label
		}
		pages = append(pages, tgbotapi.NewInlineKeyboardButtonData(label, PageKey(total)))
	}

	var steps []tgbotapi.InlineKeyboardButton
	if p.CanJumpBack() {
		steps = append(steps, tgbotapi.NewInlineKeyboardButtonData("«10", PPage+PageBack10))
	}
	if p.CanPrevious() {
		steps = append(steps, tgbotapi.NewInlineKeyboardButtonData("‹", PPage+PagePrev))
	}
	if p.CanNext() {
		steps = append(steps, tgbotapi.NewInlineKeyboardButtonData("›", PPage+PageNext))
	}
	if p.CanJumpForward() {
		steps = append(steps, tgbotapi.NewInlineKeyboardButtonData("10»", PPage+PageAhead10))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{pages}
	if len(steps) > 0 {
		rows = append(rows, steps)
	}
	return rows
}

func ConfirmMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar", CbConfirm),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancelar", CbCancel),
		),
	)
}

func RetryMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Reintentar", CbRetry)),
		tgbotapi.NewInlineKeyboardRow(backButton(), logoutButton()),
	)
}

func SuccessMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Reservar otra cita", CbRestart)),
		tgbotapi.NewInlineKeyboardRow(logoutButton()),
	)
}

// HumanStart formats fechaHora for display, falling back to the raw value.
func HumanStart(a model.Appointment) string {
	t, ok := a.StartsAt(nil)
	if !ok {
		return a.StartRaw
	}
	return t.Format("02/01/2006 15:04")
}

func SlotLabel(a model.Appointment) string {
	label := HumanStart(a)
	if a.Doctor != nil && a.Doctor.FullName() != "" {
		label += " · Dr(a). " + a.Doctor.FullName()
	}
	return label
}

func Title(s model.Specialty) string {
	if info, ok := model.LookupSpecialty(s); ok {
		return info.Name
	}
	return string(s)
}

func ProgressLine(st wizard.State) string {
	n := st.Progress()
	return fmt.Sprintf("Paso %d de %d · %s", n, len(wizard.StepLabels), wizard.StepLabels[n-1])
}

// ---------- Rendering by state ----------

func RenderText(sess *Session) string {
	if !sess.Started {
		name := sess.Name
		if name == "" {
			name = "paciente"
		}
		return fmt.Sprintf("¡Hola, %s!\nEste bot le ayuda a reservar una cita médica.\nPulse COMENZAR para continuar.", name)
	}

	f := sess.Flow
	st := f.State()
	var b strings.Builder
	b.WriteString(ProgressLine(st))
	b.WriteString("\n\n")

	switch st.Step {
	case wizard.StepAuth:
		if sess.Form.AwaitingBirthDate() {
			fmt.Fprintf(&b, "Documento: %s\nIngrese su fecha de nacimiento (AAAA-MM-DD):", sess.Form.Document)
		} else {
			b.WriteString("Ingrese su número de documento:")
		}
	case wizard.StepSpecialty:
		if st.Patient != nil {
			fmt.Fprintf(&b, "Paciente: %s %s\n", st.Patient.FirstName, st.Patient.LastName)
		}
		b.WriteString("Seleccione una especialidad:\n")
		for _, sp := range model.Specialties() {
			fmt.Fprintf(&b, "\n• %s: %s", sp.Name, sp.Description)
		}
	case wizard.StepAppointments:
		fmt.Fprintf(&b, "Especialidad: %s\n", Title(st.Specialty))
		p := f.Pager()
		switch {
		case f.Staged() != nil:
			slot := f.Staged()
			b.WriteString("\n¿Confirma la siguiente cita?\n")
			fmt.Fprintf(&b, "Fecha: %s\n", HumanStart(*slot))
			if slot.Doctor != nil {
				fmt.Fprintf(&b, "Médico: %s\n", slot.Doctor.FullName())
			}
		case p.Len() > 0:
			from, to := p.Range()
			fmt.Fprintf(&b, "Citas disponibles %d–%d de %d (página %d de %d)", from, to, p.Len(), p.Current(), p.TotalPages())
			if p.Loading() {
				b.WriteString("\n" + TextLoading)
			}
		}
	case wizard.StepSuccess:
		b.WriteString("✅ ¡Cita reservada con éxito!\n")
		if slot := f.Booked(); slot != nil {
			fmt.Fprintf(&b, "\nEspecialidad: %s\nFecha: %s", Title(model.Specialty(slot.Specialty)), HumanStart(*slot))
			if slot.Doctor != nil {
				fmt.Fprintf(&b, "\nMédico: %s", slot.Doctor.FullName())
			}
		}
	}

	if msg := f.Message(); msg != "" {
		b.WriteString("\n\n⚠️ " + msg)
	}
	return b.String()
}

// RenderKeyboard returns nil when the step takes free text only.
func RenderKeyboard(sess *Session) *tgbotapi.InlineKeyboardMarkup {
	var kb tgbotapi.InlineKeyboardMarkup
	if !sess.Started {
		kb = StartMenu()
		return &kb
	}

	f := sess.Flow
	switch f.State().Step {
	case wizard.StepAuth:
		if !sess.Form.AwaitingBirthDate() {
			return nil
		}
		kb = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Corregir documento", CbBack),
		))
	case wizard.StepSpecialty:
		kb = SpecialtyMenu()
	case wizard.StepAppointments:
		switch {
		case f.Staged() != nil:
			kb = ConfirmMenu()
		case f.Pager().Len() == 0:
			kb = RetryMenu()
		default:
			kb = SlotsMenu(f.Pager())
		}
	case wizard.StepSuccess:
		kb = SuccessMenu()
	default:
		return nil
	}
	return &kb
}
