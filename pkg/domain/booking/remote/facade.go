package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/repository/session"
	"github.com/rs/zerolog"
)

// Facade exposes the three scheduling operations for one session. It is
// the only writer of the stored credential.
type Facade struct {
	client *Client
	store  session.Store
	logger zerolog.Logger
}

func NewFacade(client *Client, store session.Store) *Facade {
	return &Facade{client: client, store: store, logger: client.logger}
}

// Authenticate returns (nil, nil) when the service knows no such patient.
// On success the credential and the patient summary are persisted.
func (f *Facade) Authenticate(ctx context.Context, documentID, birthDate string) (*model.Patient, error) {
	const op = "authenticate"
	started := time.Now()

	var resp model.Response[model.Patient]
	req := model.AuthRequest{DocumentID: documentID, BirthDate: birthDate}
	if _, err := f.client.doJSON(ctx, op, http.MethodPost, PathAuthenticate, "", req, &resp); err != nil {
		f.client.observe(op, "error", started)
		return nil, err
	}

	if resp.Content == nil {
		f.client.observe(op, "empty", started)
		f.logger.Info().Str("message", resp.Message).Msg("patient not found")
		return nil, nil
	}
	f.client.observe(op, "ok", started)

	patient := resp.Content
	if patient.Token != "" {
		if err := f.store.Set(ctx, session.KeyToken, patient.Token); err != nil {
			f.logger.Error().Err(err).Msg("failed to persist credential")
		}
	}
	if sum := patient.Summary(); sum.Complete() {
		if err := session.SaveSummary(ctx, f.store, sum); err != nil {
			f.logger.Error().Err(err).Msg("failed to persist patient summary")
		}
	}
	return patient, nil
}

// ListAvailableSlots returns the slots and the service message, which
// explains an empty result.
func (f *Facade) ListAvailableSlots(ctx context.Context, specialty model.Specialty) ([]model.Appointment, string, error) {
	const op = "list_slots"
	started := time.Now()

	q := url.Values{}
	q.Set("specialty", string(specialty))

	var resp model.Response[[]model.Appointment]
	if _, err := f.client.doJSON(ctx, op, http.MethodGet, PathSlots+"?"+q.Encode(), f.bearer(ctx), nil, &resp); err != nil {
		f.client.observe(op, "error", started)
		return nil, "", err
	}
	if resp.Content == nil || len(*resp.Content) == 0 {
		f.client.observe(op, "empty", started)
		return nil, resp.Message, nil
	}
	f.client.observe(op, "ok", started)
	return *resp.Content, resp.Message, nil
}

// BookSlot reports true only for an affirmative answer. Callers must treat
// false and a non-nil error the same way.
func (f *Facade) BookSlot(ctx context.Context, slotID, patientID int64) (bool, error) {
	const op = "book"
	started := time.Now()

	var resp model.Response[struct{}]
	req := model.BookingRequest{SlotID: slotID, PatientID: patientID}
	status, err := f.client.doJSON(ctx, op, http.MethodPost, PathBook, f.bearer(ctx), req, &resp)
	if err != nil {
		f.client.observe(op, "error", started)
		return false, err
	}

	ok := is2xx(status) && is2xx(resp.StatusCode) && resp.ErrorText() == ""
	if !ok {
		f.client.observe(op, "rejected", started)
		f.logger.Warn().Int64("slot_id", slotID).Int("status", status).Int("status_code", resp.StatusCode).
			Str("message", resp.Message).Str("error", resp.ErrorText()).Msg("booking not confirmed")
		return false, nil
	}
	f.client.observe(op, "ok", started)
	return true, nil
}

func (f *Facade) bearer(ctx context.Context) string {
	tok, err := session.Token(ctx, f.store)
	if err != nil {
		// A missing header is a valid state; the service decides.
		f.logger.Warn().Err(err).Msg("failed to read credential")
		return ""
	}
	return tok
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}
