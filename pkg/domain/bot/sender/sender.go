package sender

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Processor struct {
	config ProcessorConfig
	logger zerolog.Logger

	bot Bot
}

func New(config ProcessorConfig, logger zerolog.Logger, bot Bot) *Processor {
	return &Processor{
		config: config.withDefaults(),
		logger: logger.With().Str("component", "sender").Logger(),
		bot:    bot,
	}
}

// Send posts text to the channel and returns the message id.
func (p *Processor) Send(ctx context.Context, text string) (int, error) {
	p.logger.Trace().Msg("In")
	defer p.logger.Trace().Msg("Out")

	msgToSend := tgbotapi.NewMessageToChannel(p.config.ChannelID, text)

	var err error
	var msg tgbotapi.Message

	for i := 0; i < p.config.Attempts; i++ {
		if i > 0 {
			if werr := wait(ctx, p.config.Backoff<<(i-1)); werr != nil {
				return 0, errs.New("send cancelled").Wrap(werr)
			}
		}
		msg, err = p.bot.Send(msgToSend)
		if err == nil {
			return msg.MessageID, nil
		}
		p.logger.Warn().Err(err).Int("retry", i+1).Msg("send failed, retrying")
	}
	p.logger.Error().Err(err).Msg("send permanently failed")

	return 0, errs.New("failed to send message").WithKind(errs.KindTransport).Wrap(err)
}

// NotifyBooking announces a confirmed booking.
func (p *Processor) NotifyBooking(ctx context.Context, patient model.Patient, slot model.Appointment) error {
	_, err := p.Send(ctx, BookingText(patient, slot))
	return err
}

func BookingText(patient model.Patient, slot model.Appointment) string {
	var b strings.Builder
	b.WriteString("📅 Nueva cita reservada\n")
	fmt.Fprintf(&b, "Paciente: %s %s\n", patient.FirstName, patient.LastName)
	if info, ok := model.LookupSpecialty(model.Specialty(slot.Specialty)); ok {
		fmt.Fprintf(&b, "Especialidad: %s\n", info.Name)
	} else if slot.Specialty != "" {
		fmt.Fprintf(&b, "Especialidad: %s\n", slot.Specialty)
	}
	start := slot.StartRaw
	if t, ok := slot.StartsAt(nil); ok {
		start = t.Format("02/01/2006 15:04")
	}
	fmt.Fprintf(&b, "Fecha: %s\n", start)
	if slot.Doctor != nil {
		fmt.Fprintf(&b, "Médico: %s\n", slot.Doctor.FullName())
	}
	fmt.Fprintf(&b, "Cita #%d", slot.ID)
	return b.String()
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
