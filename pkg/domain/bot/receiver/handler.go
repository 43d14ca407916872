package receiver

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/wizard"
	"github.com/napryag/clinic_booking_bot/pkg/observability/metrics"
	"github.com/napryag/clinic_booking_bot/pkg/repository/model"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

const (
	remindTTL     = 5 * time.Second
	notifyTimeout = 30 * time.Second
)

// BotAPI is the subset of *tgbotapi.BotAPI the handler talks to.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type BookingNotifier interface {
	NotifyBooking(ctx context.Context, patient model.Patient, slot model.Appointment) error
}

type Handler struct {
	bot      BotAPI
	sessions *Registry
	notifier BookingNotifier
	metrics  *metrics.BookingMetrics
	logger   zerolog.Logger
}

// NewHandler accepts a nil notifier.
func NewHandler(bot BotAPI, sessions *Registry, notifier BookingNotifier, m *metrics.BookingMetrics, logger zerolog.Logger) *Handler {
	return &Handler{
		bot:      bot,
		sessions: sessions,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With().Str("component", "receiver").Logger(),
	}
}

// RerenderOnSettle redraws a user's page whenever a delayed page move commits.
func (h *Handler) RerenderOnSettle() {
	h.sessions.OnCreate(func(sess *Session) {
		userID := sess.UserID
		sess.Flow.Pager().OnSettled(func(int) {
			go h.Rerender(userID)
		})
	})
}

func (h *Handler) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	sess := h.sessions.Get(m.From.ID)
	sess.Lock()
	defer sess.Unlock()

	sess.ChatID = m.Chat.ID
	log := h.logger.With().Int64("user_id", m.From.ID).Logger()

	if m.IsCommand() && m.Command() == "start" {
		sess.Started = false
		sess.Form = AuthForm{}
		sess.MessageID = 0
		sess.Name = m.From.FirstName
		h.deleteMessage(m.Chat.ID, m.MessageID)
		h.render(sess)
		return
	}

	// Auth answers carry personal data; they never stay in the chat.
	h.deleteMessage(m.Chat.ID, m.MessageID)

	if !sess.Started || sess.Flow.State().Step != wizard.StepAuth {
		h.remind(m.Chat.ID)
		return
	}

	text := strings.TrimSpace(m.Text)
	if !sess.Form.AwaitingBirthDate() {
		if text == "" {
			h.remind(m.Chat.ID)
			return
		}
		sess.Form.Document = text
		h.render(sess)
		return
	}

	doc := sess.Form.Document
	sess.Form = AuthForm{}
	if _, err := sess.Flow.Authenticate(ctx, doc, text); err != nil {
		log.Debug().Err(err).Msg("authentication rejected")
	}
	h.render(sess)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil {
		return
	}
	sess := h.sessions.Get(cq.From.ID)
	sess.Lock()
	defer sess.Unlock()

	if cq.Message != nil {
		sess.ChatID = cq.Message.Chat.ID
		sess.MessageID = cq.Message.MessageID
	}
	if sess.Name == "" {
		sess.Name = cq.From.FirstName
	}

	toast, redraw := h.apply(ctx, sess, cq.Data)
	if redraw {
		h.render(sess)
	}
	if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, toast)); err != nil {
		h.logger.Debug().Err(err).Msg("answer callback failed")
	}
}

// apply runs one button press against the session. It returns the toast to
// show on the button and whether the screen needs redrawing.
func (h *Handler) apply(ctx context.Context, sess *Session, data string) (string, bool) {
	f := sess.Flow
	log := h.logger.With().Int64("user_id", sess.UserID).Str("data", data).Logger()

	if data == CbNoop {
		return "", false
	}
	if data == CbStart {
		sess.Started = true
		sess.Form = AuthForm{}
		f.Start(ctx)
		return "", true
	}
	if !sess.Started {
		return TextStale, true
	}

	var err error
	switch {
	case data == CbBack:
		if f.State().Step == wizard.StepAuth && sess.Form.AwaitingBirthDate() {
			sess.Form = AuthForm{}
			break
		}
		_, err = f.Back()
	case data == CbLogout:
		sess.Form = AuthForm{}
		_, err = f.Logout(ctx)
	case data == CbRestart:
		_, err = f.Restart(ctx)
	case data == CbRetry:
		err = f.ReloadSlots(ctx)
	case data == CbCancel:
		if f.State().Step != wizard.StepAppointments || f.Staged() == nil {
			return TextStale, true
		}
		f.CancelSelection()
	case data == CbConfirm:
		if _, err = f.ConfirmBooking(ctx); err == nil {
			h.notify(f)
		}
	case strings.HasPrefix(data, PSpecialty):
		code, _ := Is(data, PSpecialty)
		info, ok := model.SpecialtyByCode(code)
		if !ok {
			return TextStale, true
		}
		_, err = f.SelectSpecialty(ctx, info.ID)
	case strings.HasPrefix(data, PSlot):
		id, ok := ParseSlot(data)
		if !ok {
			return TextStale, true
		}
		_, err = f.SelectSlot(id)
	case strings.HasPrefix(data, PPage):
		action, _ := Is(data, PPage)
		if f.State().Step != wizard.StepAppointments || f.Staged() != nil {
			return TextStale, true
		}
		if !h.navigate(f, action) {
			return "", false
		}
	default:
		log.Warn().Msg("unknown callback")
		return TextStale, false
	}

	if err != nil {
		// Buttons left on an older screen, or a slot no longer listed.
		if errs.IsKind(err, errs.KindInvalidTransition) || strings.HasPrefix(data, PSlot) {
			log.Debug().Err(err).Msg("stale action")
			return TextStale, true
		}
		log.Debug().Err(err).Msg("action failed")
	}
	return "", true
}

// navigate reports whether the page move was accepted.
func (h *Handler) navigate(f *wizard.Flow, action string) bool {
	p := f.Pager()
	var ok bool
	label := action
	switch action {
	case PageNext:
		ok = p.Next()
	case PagePrev:
		ok = p.Previous()
	case PageBack10:
		ok = p.JumpBack()
	case PageAhead10:
		ok = p.JumpForward()
	default:
		n, err := strconv.Atoi(action)
		if err != nil {
			return false
		}
		ok = p.GoTo(n)
		label = "goto"
	}
	h.metrics.ObserveNavigation(label, ok)
	return ok
}

func (h *Handler) notify(f *wizard.Flow) {
	if h.notifier == nil {
		return
	}
	st := f.State()
	slot := f.Booked()
	if st.Patient == nil || slot == nil {
		return
	}
	patient, booked := *st.Patient, *slot
	if booked.Specialty == "" {
		booked.Specialty = string(st.Specialty)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.NotifyBooking(ctx, patient, booked); err != nil {
			h.logger.Error().Err(err).Int64("slot_id", booked.ID).Msg("booking notification failed")
		}
	}()
}

// Rerender redraws the user's current screen, if the user is known.
func (h *Handler) Rerender(userID int64) {
	sess, ok := h.sessions.Lookup(userID)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	h.render(sess)
}

// render edits the session message in place, or sends a new one when there
// is none yet. Caller holds the session lock.
func (h *Handler) render(sess *Session) {
	if sess.ChatID == 0 {
		return
	}
	text := RenderText(sess)
	kb := RenderKeyboard(sess)

	if sess.MessageID == 0 {
		msg := tgbotapi.NewMessage(sess.ChatID, text)
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		sent, err := h.bot.Send(msg)
		if err != nil {
			h.logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("send screen failed")
			return
		}
		sess.MessageID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageText(sess.ChatID, sess.MessageID, text)
	edit.ReplyMarkup = kb
	if _, err := h.bot.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		h.logger.Warn().Err(err).Int64("user_id", sess.UserID).Msg("edit screen failed")
	}
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		h.logger.Debug().Err(err).Msg("delete message failed")
	}
}

func (h *Handler) remind(chatID int64) {
	sent, err := h.bot.Send(tgbotapi.NewMessage(chatID, TextUseButtons))
	if err != nil {
		h.logger.Debug().Err(err).Msg("send reminder failed")
		return
	}
	time.AfterFunc(remindTTL, func() {
		h.deleteMessage(chatID, sent.MessageID)
	})
}
