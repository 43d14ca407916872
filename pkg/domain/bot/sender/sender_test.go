package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBot struct {
	failures int
	calls    int
	last     tgbotapi.MessageConfig
}

func (b *flakyBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.calls++
	b.last = c.(tgbotapi.MessageConfig)
	if b.calls <= b.failures {
		return tgbotapi.Message{}, errors.New("telegram: too many requests")
	}
	return tgbotapi.Message{MessageID: 77}, nil
}

func newProcessor(bot Bot) *Processor {
	return New(ProcessorConfig{ChannelID: "@clinic", Backoff: time.Millisecond}, zerolog.Nop(), bot)
}

func TestSend_RetriesThenSucceeds(t *testing.T) {
	bot := &flakyBot{failures: 2}

	id, err := newProcessor(bot).Send(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, 77, id)
	assert.Equal(t, 3, bot.calls)
	assert.Equal(t, "@clinic", bot.last.ChannelUsername)
	assert.Equal(t, "hola", bot.last.Text)
}

func TestSend_GivesUpAfterThreeAttempts(t *testing.T) {
	bot := &flakyBot{failures: 10}

	_, err := newProcessor(bot).Send(context.Background(), "hola")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindTransport))
	assert.Equal(t, 3, bot.calls)
}

func TestSend_StopsWhenCancelled(t *testing.T) {
	bot := &flakyBot{failures: 10}
	p := New(ProcessorConfig{ChannelID: "@clinic", Backoff: time.Hour}, zerolog.Nop(), bot)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Send(ctx, "hola")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, bot.calls)
}

func TestNotifyBooking(t *testing.T) {
	bot := &flakyBot{}
	patient := model.Patient{ID: 1, FirstName: "Ana", LastName: "Gómez"}
	slot := model.Appointment{
		ID:        42,
		Specialty: string(model.SpecialtyDental),
		StartRaw:  "2025-07-01T08:30:00",
		Doctor:    &model.Doctor{FirstName: "Carla", LastName: "Ruiz"},
	}

	require.NoError(t, newProcessor(bot).NotifyBooking(context.Background(), patient, slot))
	assert.Equal(t, "📅 Nueva cita reservada\n"+
		"Paciente: Ana Gómez\n"+
		"Especialidad: Examen Odontológico\n"+
		"Fecha: 01/07/2025 08:30\n"+
		"Médico: Carla Ruiz\n"+
		"Cita #42", bot.last.Text)
}
