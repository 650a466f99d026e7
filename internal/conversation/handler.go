package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salonbot/internal/booking"
	"salonbot/internal/models"
	"salonbot/internal/validate"
)

// ActionKind classifies an inbound caller action.
type ActionKind string

const (
	ActionStart   ActionKind = "start"   // begin a fresh booking flow
	ActionInput   ActionKind = "input"   // free text or button choice
	ActionBack    ActionKind = "back"    // return to an earlier step
	ActionAbort   ActionKind = "abort"   // abandon the flow at Confirm
	ActionConfirm ActionKind = "confirm" // commit the booking at Confirm
)

// Action is a single inbound caller action.
type Action struct {
	Kind ActionKind
	Text string
}

// Reply is what the transport should render back to the caller. The
// machine never formats markup, only chooses the text and choice set.
type Reply struct {
	Text    string
	Choices []string
	Done    bool // flow ended (committed or cancelled)
}

// ReservationEngine is the slice of the booking engine the dialogue
// needs.
type ReservationEngine interface {
	AvailableDates(ctx context.Context, service string) ([]string, error)
	AvailableTimes(ctx context.Context, date, service string) ([]string, error)
	Reserve(ctx context.Context, req booking.ReserveRequest) (*models.Appointment, error)
}

// ServiceCatalog resolves service names.
type ServiceCatalog interface {
	ResolveService(ctx context.Context, text string) (*models.Service, error)
	ActiveServices(ctx context.Context) ([]models.Service, error)
}

// Guard is the flood-control gate and session-freshness primitive.
type Guard interface {
	RegisterRequest(callerID int64) bool
	TouchSession(callerID int64)
	ClearSession(callerID int64)
	SessionIsFresh(callerID int64, maxAge time.Duration) bool
}

// Handler is the conversation state machine entry point.
type Handler struct {
	guard    Guard
	engine   ReservationEngine
	catalog  ServiceCatalog
	sessions *SessionStore
	idle     time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	routes map[routeKey]stepFunc
}

type routeKey struct {
	step Step
	kind ActionKind
}

type stepFunc func(ctx context.Context, session *Session, input string) Reply

// NewHandler wires the dialogue over its collaborators. idle is the
// session staleness window (default 10 minutes).
func NewHandler(guard Guard, engine ReservationEngine, catalog ServiceCatalog, idle time.Duration, logger zerolog.Logger) *Handler {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	h := &Handler{
		guard:    guard,
		engine:   engine,
		catalog:  catalog,
		sessions: NewSessionStore(),
		idle:     idle,
		now:      time.Now,
		logger:   logger.With().Str("component", "conversation").Logger(),
	}
	h.routes = map[routeKey]stepFunc{
		{StepSelectService, ActionInput}: h.handleSelectService,
		{StepEnterDate, ActionInput}:     h.handleEnterDate,
		{StepEnterTime, ActionInput}:     h.handleEnterTime,
		{StepEnterFullName, ActionInput}: h.handleEnterFullName,
		{StepEnterAllergy, ActionInput}:  h.handleEnterAllergy,
		{StepEnterPhone, ActionInput}:    h.handleEnterPhone,
		{StepConfirm, ActionInput}:       h.handleConfirmInput,
		{StepConfirm, ActionConfirm}:     h.handleCommit,
		{StepConfirm, ActionAbort}:       h.handleAbort,
	}
	return h
}

// HandleCallerAction is the single entry point for inbound actions.
func (h *Handler) HandleCallerAction(ctx context.Context, callerID int64, action Action) Reply {
	if !h.guard.RegisterRequest(callerID) {
		// No state change for throttled callers.
		return Reply{Text: msgTooManyRequests}
	}

	if action.Kind == ActionStart {
		h.sessions.Reset(callerID)
		h.guard.TouchSession(callerID)
		return h.promptSelectService(ctx, msgWelcome)
	}

	session := h.sessions.Get(callerID)
	if session == nil {
		h.sessions.GetOrCreate(callerID)
		h.guard.TouchSession(callerID)
		return h.promptSelectService(ctx, msgWelcome)
	}

	if !h.guard.SessionIsFresh(callerID, h.idle) {
		h.logger.Debug().Int64("caller_id", callerID).Msg("stale session reset")
		h.sessions.Reset(callerID)
		h.guard.TouchSession(callerID)
		return h.promptSelectService(ctx, msgSessionExpired)
	}
	h.guard.TouchSession(callerID)

	if action.Kind == ActionBack {
		return h.handleBack(ctx, session)
	}

	fn, ok := h.routes[routeKey{session.Step, action.Kind}]
	if !ok {
		// Unmatched (step, action) combinations reset the dialogue.
		h.sessions.Reset(callerID)
		return h.promptSelectService(ctx, msgRestart)
	}

	session.UpdatedAt = h.now()
	return fn(ctx, session, strings.TrimSpace(action.Text))
}

func (h *Handler) handleBack(ctx context.Context, session *Session) Reply {
	target, ok := BackTarget(session.Step)
	if !ok {
		h.sessions.Reset(session.CallerID)
		return h.promptSelectService(ctx, msgRestart)
	}
	session.Step = target

	switch target {
	case StepSelectService:
		return h.promptSelectService(ctx, msgSelectService)
	case StepEnterFullName:
		return Reply{Text: msgAskFullName}
	case StepEnterAllergy:
		return Reply{Text: msgAskAllergy, Choices: allergyChoices}
	case StepConfirm:
		return h.promptConfirm(session)
	default:
		return Reply{Text: prompts[target]}
	}
}

func (h *Handler) promptSelectService(ctx context.Context, prefix string) Reply {
	services, err := h.catalog.ActiveServices(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("list services failed")
		return Reply{Text: msgTryLater}
	}
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	return Reply{Text: prefix, Choices: names}
}

func (h *Handler) handleSelectService(ctx context.Context, session *Session, input string) Reply {
	service, err := h.catalog.ResolveService(ctx, input)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolve service failed")
		return Reply{Text: msgTryLater}
	}
	if service == nil {
		return h.promptSelectService(ctx, msgUnknownService)
	}

	// Read availability before touching the session: a failed read must
	// leave the caller exactly where they were.
	dates, err := h.engine.AvailableDates(ctx, service.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("list dates failed")
		return Reply{Text: msgTryLater}
	}

	session.Data.ServiceName = service.Name
	session.Step = StepEnterDate

	if len(dates) == 0 {
		return Reply{Text: msgNoDates, Choices: nil}
	}
	return Reply{Text: msgAskDate, Choices: dates}
}

func (h *Handler) handleEnterDate(ctx context.Context, session *Session, input string) Reply {
	date, err := validate.Date(input, h.now())
	if err != nil {
		return h.reprompt(err, msgAskDate)
	}

	times, terr := h.engine.AvailableTimes(ctx, date, session.Data.ServiceName)
	if terr != nil {
		h.logger.Error().Err(terr).Msg("list times failed")
		return Reply{Text: msgTryLater}
	}

	session.Data.Date = date
	session.Step = StepEnterTime
	return Reply{Text: msgAskTime, Choices: times}
}

func (h *Handler) handleEnterTime(_ context.Context, session *Session, input string) Reply {
	tm, err := validate.Time(input)
	if err != nil {
		return h.reprompt(err, msgAskTime)
	}

	session.Data.Time = tm
	session.Step = StepEnterFullName
	return Reply{Text: msgAskFullName}
}

func (h *Handler) handleEnterFullName(_ context.Context, session *Session, input string) Reply {
	name, err := validate.FullName(input)
	if err != nil {
		return h.reprompt(err, msgAskFullName)
	}

	session.Data.FullName = name
	session.Step = StepEnterAllergy
	return Reply{Text: msgAskAllergy, Choices: allergyChoices}
}

func (h *Handler) handleEnterAllergy(_ context.Context, session *Session, input string) Reply {
	switch strings.ToLower(input) {
	case "да", "есть", "yes":
		session.Data.HasAllergy = true
	case "нет", "no":
		session.Data.HasAllergy = false
	default:
		return Reply{Text: msgAskAllergy, Choices: allergyChoices}
	}

	session.Step = StepEnterPhone
	return Reply{Text: msgAskPhone}
}

func (h *Handler) handleEnterPhone(_ context.Context, session *Session, input string) Reply {
	phone, err := validate.Phone(input)
	if err != nil {
		return h.reprompt(err, msgAskPhone)
	}

	session.Data.Phone = phone
	session.Step = StepConfirm
	return h.promptConfirm(session)
}

func (h *Handler) handleConfirmInput(ctx context.Context, session *Session, input string) Reply {
	switch strings.ToLower(input) {
	case "да", "подтвердить", "подтверждаю":
		return h.handleCommit(ctx, session, input)
	case "нет", "отмена", "отменить":
		return h.handleAbort(ctx, session, input)
	default:
		return h.promptConfirm(session)
	}
}

func (h *Handler) handleCommit(ctx context.Context, session *Session, _ string) Reply {
	appt, err := h.engine.Reserve(ctx, booking.ReserveRequest{
		CallerID:    session.CallerID,
		ServiceName: session.Data.ServiceName,
		Date:        session.Data.Date,
		Time:        session.Data.Time,
		FullName:    session.Data.FullName,
		HasAllergy:  session.Data.HasAllergy,
		Phone:       session.Data.Phone,
	})
	if err != nil {
		// Business-rule rejections keep the caller in Confirm so they
		// can correct and retry.
		switch {
		case errors.Is(err, booking.ErrDuplicateBooking):
			return Reply{Text: msgDuplicate, Choices: confirmChoices}
		case errors.Is(err, booking.ErrCallerLimit):
			return Reply{Text: msgCallerLimit, Choices: confirmChoices}
		case errors.Is(err, booking.ErrSlotConflict):
			return Reply{Text: msgSlotTaken, Choices: confirmChoices}
		default:
			h.logger.Error().Err(err).Int64("caller_id", session.CallerID).Msg("reserve failed")
			return Reply{Text: msgTryLater, Choices: confirmChoices}
		}
	}

	h.sessions.Delete(session.CallerID)
	h.guard.ClearSession(session.CallerID)
	return Reply{
		Text: fmt.Sprintf(msgCommitted, appt.ServiceName, appt.Date, appt.Time),
		Done: true,
	}
}

func (h *Handler) handleAbort(_ context.Context, session *Session, _ string) Reply {
	h.sessions.Delete(session.CallerID)
	h.guard.ClearSession(session.CallerID)
	return Reply{Text: msgCancelled, Done: true}
}

func (h *Handler) promptConfirm(session *Session) Reply {
	allergy := "нет"
	if session.Data.HasAllergy {
		allergy = "да"
	}
	text := fmt.Sprintf(msgConfirmTemplate,
		session.Data.ServiceName,
		session.Data.Date,
		session.Data.Time,
		session.Data.FullName,
		allergy,
		session.Data.Phone,
	)
	return Reply{Text: text, Choices: confirmChoices}
}

func (h *Handler) reprompt(err error, fallback string) Reply {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return Reply{Text: verr.Message}
	}
	return Reply{Text: fallback}
}

// Session returns a caller's current session (nil when no flow is
// active). Used by the transport for diagnostics.
func (h *Handler) Session(callerID int64) *Session {
	return h.sessions.Get(callerID)
}

var (
	allergyChoices = []string{"Да", "Нет"}
	confirmChoices = []string{"Подтвердить", "Отменить"}
)

var prompts = map[Step]string{
	StepSelectService: msgSelectService,
	StepEnterDate:     msgAskDate,
	StepEnterTime:     msgAskTime,
	StepEnterFullName: msgAskFullName,
	StepEnterAllergy:  msgAskAllergy,
	StepEnterPhone:    msgAskPhone,
}

const (
	msgWelcome         = "Добро пожаловать в салон красоты!\n\nВыберите услугу, которая вас интересует:"
	msgSelectService   = "Выберите услугу:"
	msgUnknownService  = "Такой услуги нет. Выберите услугу из списка:"
	msgNoDates         = "Свободных дат для этой услуги пока нет. Загляните позже."
	msgAskDate         = "Выберите дату (ДД.ММ.ГГГГ):"
	msgAskTime         = "Выберите время (ЧЧ:ММ):"
	msgAskFullName     = "Введите ваше ФИО:"
	msgAskAllergy      = "Есть ли у вас аллергии?"
	msgAskPhone        = "Введите номер телефона:"
	msgConfirmTemplate = "Проверьте данные записи:\n\nУслуга: %s\nДата: %s\nВремя: %s\nФИО: %s\nАллергии: %s\nТелефон: %s\n\nПодтвердить?"
	msgCommitted       = "Вы записаны: %s, %s в %s. Ждем вас!"
	msgCancelled       = "Запись отменена."
	msgDuplicate       = "У вас уже есть запись на это время."
	msgCallerLimit     = "Достигнут лимит активных записей. Отмените одну из них, чтобы записаться."
	msgSlotTaken       = "Это время уже занято. Выберите другое время."
	msgSessionExpired  = "Сессия истекла. Начнем заново: выберите услугу."
	msgRestart         = "Начнем сначала: выберите услугу."
	msgTooManyRequests = "Слишком много запросов. Попробуйте позже."
	msgTryLater        = "Произошла ошибка. Попробуйте позже."
)
