// Package wizard drives the four-step booking flow:
//
//	auth -> specialty -> appointments -> success
//
// with back-edges specialty->auth and appointments->specialty, logout from
// any step after auth, and restart from success. Each transition is a method
// returning the resulting State; a rejected transition leaves the state as
// it was and returns an error of kind invalid_transition.
//
// A Flow serves a single user and is not safe for concurrent use.
package wizard

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/credential"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/pager"
	"github.com/napryag/clinic_booking_bot/pkg/observability/metrics"
	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/repository/session"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

const DefaultPageSize = 3

// Remote is the scheduling service as seen by the wizard.
type Remote interface {
	Authenticate(ctx context.Context, documentID, birthDate string) (*model.Patient, error)
	ListAvailableSlots(ctx context.Context, specialty model.Specialty) ([]model.Appointment, string, error)
	BookSlot(ctx context.Context, slotID, patientID int64) (bool, error)
}

type SessionChecker interface {
	IsSessionValid(token string) bool
}

type Options struct {
	PageSize int
	Settler  pager.Settler
	Checker  SessionChecker
	Metrics  *metrics.BookingMetrics
	Logger   zerolog.Logger
}

type Flow struct {
	remote   Remote
	store    session.Store
	checker  SessionChecker
	metrics  *metrics.BookingMetrics
	logger   zerolog.Logger
	validate *validator.Validate

	state   State
	slots   *pager.Pager[model.Appointment]
	staged  *model.Appointment
	booked  *model.Appointment
	message string
}

func New(remote Remote, store session.Store, opts Options) *Flow {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Checker == nil {
		opts.Checker = credential.New(nil)
	}
	return &Flow{
		remote:   remote,
		store:    store,
		checker:  opts.Checker,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With().Str("component", "wizard").Logger(),
		validate: validator.New(),
		state:    State{Step: StepAuth},
		slots:    pager.New[model.Appointment](opts.PageSize, opts.Settler),
	}
}

func (f *Flow) State() State { return f.state }

// Staged returns the slot awaiting confirmation, if any.
func (f *Flow) Staged() *model.Appointment { return f.staged }

// Booked returns the slot confirmed on the way to success.
func (f *Flow) Booked() *model.Appointment { return f.booked }

// Message is the last user-visible error of the active step.
func (f *Flow) Message() string { return f.message }

func (f *Flow) Pager() *pager.Pager[model.Appointment] { return f.slots }

// Start is the process-start checkpoint. A valid stored credential with a
// cached patient skips authentication; the patient is not re-fetched.
func (f *Flow) Start(ctx context.Context) State {
	f.reset()
	if patient := f.storedSession(ctx); patient != nil {
		f.state.Patient = patient
		f.moveTo(StepSpecialty)
		return f.state
	}
	f.moveTo(StepAuth)
	return f.state
}

type authForm struct {
	DocumentID string `validate:"required,max=32"`
	BirthDate  string `validate:"required,datetime=2006-01-02"`
}

func (f *Flow) Authenticate(ctx context.Context, documentID, birthDate string) (State, error) {
	if err := f.require(StepAuth, "authenticate"); err != nil {
		return f.state, err
	}
	form := authForm{DocumentID: strings.TrimSpace(documentID), BirthDate: strings.TrimSpace(birthDate)}
	if err := f.validate.Struct(form); err != nil {
		f.message = MsgInvalidForm
		return f.state, errs.New("invalid auth form").WithKind(errs.KindValidation).Wrap(err)
	}

	f.message = ""
	patient, err := f.remote.Authenticate(ctx, form.DocumentID, form.BirthDate)
	if err != nil {
		f.message = MsgAuthFailed
		f.logger.Warn().Err(err).Msg("authentication failed")
		return f.state, err
	}
	if patient == nil {
		f.message = MsgPatientNotFound
		return f.state, errs.New("patient not found").WithKind(errs.KindNotFound)
	}

	f.state.Patient = patient
	f.moveTo(StepSpecialty)
	return f.state, nil
}

// SelectSpecialty enters the appointments step and loads its slots. A failed
// load keeps the wizard on appointments with an inline message.
func (f *Flow) SelectSpecialty(ctx context.Context, s model.Specialty) (State, error) {
	if err := f.require(StepSpecialty, "select specialty"); err != nil {
		return f.state, err
	}
	if _, ok := model.LookupSpecialty(s); !ok {
		return f.state, errs.New("unknown specialty").Arg("specialty", s).WithKind(errs.KindInvalidTransition)
	}

	f.state.Specialty = s
	f.staged = nil
	f.moveTo(StepAppointments)
	return f.state, f.loadSlots(ctx)
}

// ReloadSlots re-fetches the slot list of the current specialty.
func (f *Flow) ReloadSlots(ctx context.Context) error {
	if err := f.require(StepAppointments, "reload slots"); err != nil {
		return err
	}
	f.staged = nil
	return f.loadSlots(ctx)
}

func (f *Flow) loadSlots(ctx context.Context) error {
	f.message = ""
	f.slots.Reset(nil)

	items, msg, err := f.remote.ListAvailableSlots(ctx, f.state.Specialty)
	if err != nil {
		f.message = MsgSlotsFailed
		f.logger.Warn().Err(err).Str("specialty", string(f.state.Specialty)).Msg("failed to load slots")
		return err
	}
	if len(items) == 0 {
		f.message = msg
		if f.message == "" {
			f.message = MsgNoSlots
		}
		return errs.New("no slots").Arg("specialty", f.state.Specialty).WithKind(errs.KindNotFound)
	}

	f.slots.Reset(items)
	f.logger.Debug().Int("slots", len(items)).Str("specialty", string(f.state.Specialty)).Msg("slots loaded")
	return nil
}

func (f *Flow) Back() (State, error) {
	switch f.state.Step {
	case StepSpecialty:
		f.state.Patient = nil
		f.state.Specialty = ""
		f.message = ""
		f.moveTo(StepAuth)
	case StepAppointments:
		f.state.Specialty = ""
		f.staged = nil
		f.message = ""
		f.slots.Reset(nil)
		f.moveTo(StepSpecialty)
	default:
		return f.state, f.invalid("back")
	}
	return f.state, nil
}

// SelectSlot stages a fetched slot for confirmation without changing step.
func (f *Flow) SelectSlot(id int64) (*model.Appointment, error) {
	if err := f.require(StepAppointments, "select slot"); err != nil {
		return nil, err
	}
	for _, a := range f.slots.Items() {
		if a.ID == id {
			slot := a
			f.staged = &slot
			return f.staged, nil
		}
	}
	return nil, errs.New("slot not in the current list").Arg("slot", id).WithKind(errs.KindNotFound)
}

func (f *Flow) CancelSelection() {
	f.staged = nil
}

// ConfirmBooking books the staged slot. Only an affirmative answer moves the
// wizard to success; otherwise the slot stays staged for a retry.
func (f *Flow) ConfirmBooking(ctx context.Context) (State, error) {
	if err := f.require(StepAppointments, "confirm booking"); err != nil {
		return f.state, err
	}
	if f.staged == nil {
		return f.state, errs.New("no slot selected").WithKind(errs.KindInvalidTransition)
	}

	f.message = ""
	ok, err := f.remote.BookSlot(ctx, f.staged.ID, f.state.Patient.ID)
	f.metrics.ObserveBooking(string(f.state.Specialty), err == nil && ok)
	if err != nil || !ok {
		f.message = MsgBookingFailed
		if err == nil {
			err = errs.New("booking not confirmed").Arg("slot", f.staged.ID)
		}
		f.logger.Warn().Err(err).Int64("slot_id", f.staged.ID).Msg("booking failed")
		return f.state, err
	}

	f.logger.Info().Int64("slot_id", f.staged.ID).Int64("patient_id", f.state.Patient.ID).Msg("booking confirmed")
	f.booked = f.staged
	f.staged = nil
	f.moveTo(StepSuccess)
	return f.state, nil
}

// Logout clears the stored credential and patient from any step after auth.
func (f *Flow) Logout(ctx context.Context) (State, error) {
	if f.state.Step == StepAuth {
		return f.state, f.invalid("logout")
	}
	f.clearStore(ctx)
	f.reset()
	f.moveTo(StepAuth)
	return f.state, nil
}

// Restart leaves success. A still-valid session goes back to specialty with
// the same patient; otherwise everything, the stale credential included, is
// cleared and the patient must authenticate again.
func (f *Flow) Restart(ctx context.Context) (State, error) {
	if err := f.require(StepSuccess, "restart"); err != nil {
		return f.state, err
	}

	if f.sessionValid(ctx) {
		patient := f.state.Patient
		if patient == nil {
			patient = f.storedSession(ctx)
		}
		if patient != nil {
			f.reset()
			f.state.Patient = patient
			f.moveTo(StepSpecialty)
			return f.state, nil
		}
	}

	f.clearStore(ctx)
	f.reset()
	f.moveTo(StepAuth)
	return f.state, nil
}

func (f *Flow) sessionValid(ctx context.Context) bool {
	tok, err := session.Token(ctx, f.store)
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to read credential")
		return false
	}
	return f.checker.IsSessionValid(tok)
}

// storedSession returns the cached patient when the stored credential is valid.
func (f *Flow) storedSession(ctx context.Context) *model.Patient {
	if !f.sessionValid(ctx) {
		return nil
	}
	sum, err := session.LoadSummary(ctx, f.store)
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to read cached patient")
		return nil
	}
	if sum == nil || sum.ID == 0 {
		return nil
	}
	return sum.Patient()
}

func (f *Flow) clearStore(ctx context.Context) {
	if err := session.ClearAll(ctx, f.store); err != nil {
		f.logger.Error().Err(err).Msg("failed to clear session store")
	}
}

func (f *Flow) reset() {
	f.state = State{Step: f.state.Step}
	f.staged = nil
	f.booked = nil
	f.message = ""
	f.slots.Reset(nil)
}

func (f *Flow) moveTo(to Step) {
	from := f.state.Step
	f.state.Step = to
	f.metrics.ObserveTransition(from.String(), to.String())
	f.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("transition")
}

func (f *Flow) require(step Step, action string) error {
	if f.state.Step != step {
		return f.invalid(action)
	}
	return nil
}

func (f *Flow) invalid(action string) error {
	return errs.New("transition not allowed").
		Arg("action", action).
		Arg("step", f.state.Step.String()).
		WithKind(errs.KindInvalidTransition)
}
