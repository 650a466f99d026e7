// Package bot adapts Telegram updates to the conversation handler and
// exposes the operator command surface.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salonbot/internal/booking"
	"salonbot/internal/catalog"
	"salonbot/internal/conversation"
	"salonbot/internal/events"
	"salonbot/internal/export"
	"salonbot/internal/floodguard"
	"salonbot/internal/models"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Bot drives the Telegram update loop.
type Bot struct {
	tg      telegramClient
	handler *conversation.Handler
	engine  *booking.Engine
	catalog *catalog.Catalog
	guard   *floodguard.Guard
	admins  map[int64]struct{}
	logger  *zerolog.Logger
}

func New(
	token string,
	handler *conversation.Handler,
	engine *booking.Engine,
	cat *catalog.Catalog,
	guard *floodguard.Guard,
	admins []int64,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(&realTelegramClient{api: api}, handler, engine, cat, guard, admins, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(
	tg telegramClient,
	handler *conversation.Handler,
	engine *booking.Engine,
	cat *catalog.Catalog,
	guard *floodguard.Guard,
	admins []int64,
	logger *zerolog.Logger,
) (*Bot, error) {
	return newBot(tg, handler, engine, cat, guard, admins, logger)
}

func newBot(
	tg telegramClient,
	handler *conversation.Handler,
	engine *booking.Engine,
	cat *catalog.Catalog,
	guard *floodguard.Guard,
	admins []int64,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	adminSet := make(map[int64]struct{})
	for _, id := range admins {
		adminSet[id] = struct{}{}
	}
	return &Bot{
		tg:      tg,
		handler: handler,
		engine:  engine,
		catalog: cat,
		guard:   guard,
		admins:  adminSet,
		logger:  logger,
	}, nil
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

// Start begins polling updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("Handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("Handling message")
		b.handleMessage(ctx, update.Message)
		return
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if strings.HasPrefix(text, "/") {
		// Match the command word exactly so "/startanything" is not
		// routed as "/start".
		fields := strings.Fields(text)
		switch fields[0] {
		case "/start", "/book":
			reply := b.handler.HandleCallerAction(ctx, userID, conversation.Action{Kind: conversation.ActionStart})
			b.sendReply(chatID, reply)
			return
		case "/my":
			b.handleMyAppointments(ctx, chatID, userID)
			return
		case "/services":
			b.handleServices(ctx, chatID)
			return
		case "/help":
			b.reply(chatID, b.helpText(userID))
			return
		case "/cancel":
			// Operators get the unconditional variant below.
			if !b.isAdmin(userID) {
				b.handleUserCancel(ctx, chatID, userID, fields[1:])
				return
			}
		}
		if b.isAdmin(userID) && b.handleAdminCommand(ctx, chatID, text) {
			return
		}
		b.reply(chatID, "Неизвестная команда. /help")
		return
	}

	reply := b.handler.HandleCallerAction(ctx, userID, conversation.Action{Kind: conversation.ActionInput, Text: text})
	b.sendReply(chatID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	_ = b.answerCallback(cq.ID)

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	var action conversation.Action
	switch {
	case strings.HasPrefix(data, "pick:"):
		action = conversation.Action{Kind: conversation.ActionInput, Text: strings.TrimPrefix(data, "pick:")}
	case data == "back":
		action = conversation.Action{Kind: conversation.ActionBack}
	case data == "confirm":
		action = conversation.Action{Kind: conversation.ActionConfirm}
	case data == "abort":
		action = conversation.Action{Kind: conversation.ActionAbort}
	default:
		return
	}

	reply := b.handler.HandleCallerAction(ctx, userID, action)
	b.sendReply(chatID, reply)
}

func (b *Bot) handleMyAppointments(ctx context.Context, chatID, userID int64) {
	appts, err := b.engine.CallerAppointments(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list caller appointments failed")
		b.reply(chatID, "Не удалось получить список записей. Попробуйте позже.")
		return
	}
	if len(appts) == 0 {
		b.reply(chatID, "У вас нет активных записей.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Ваши записи:\n")
	for _, a := range appts {
		fmt.Fprintf(&sb, "#%d %s %s %s — %s\n", a.ID, a.ServiceName, a.Date, a.Time, a.FullName)
	}
	sb.WriteString("\nОтменить: /cancel <номер>")
	b.reply(chatID, sb.String())
}

// handleServices shows the catalog, with the stored photo where a
// service has one.
func (b *Bot) handleServices(ctx context.Context, chatID int64) {
	services, err := b.catalog.ActiveServices(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить услуги", err)
		return
	}
	if len(services) == 0 {
		b.reply(chatID, "Каталог услуг пока пуст.")
		return
	}
	for _, s := range services {
		caption := fmt.Sprintf("%s\n%s\nДлительность: %d мин, цена: %.0f ₽",
			s.Name, s.Description, s.DurationMinutes, s.Price)
		if s.PhotoRef != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(s.PhotoRef))
			photo.Caption = caption
			if _, err := b.tg.Send(photo); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("service", s.Name).Msg("send photo failed")
			}
			continue
		}
		b.reply(chatID, caption)
	}
}

// handleUserCancel cancels the caller's own appointment, subject to
// the cancellation lead window.
func (b *Bot) handleUserCancel(ctx context.Context, chatID, userID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Формат: /cancel <номер записи>. Номера — в /my.")
		return
	}
	appts, err := b.engine.CallerAppointments(ctx, userID)
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось отменить запись", err)
		return
	}
	owned := false
	for _, a := range appts {
		if a.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		b.reply(chatID, "Запись не найдена.")
		return
	}
	err = b.engine.Cancel(ctx, id, time.Now(), false)
	switch {
	case errors.Is(err, booking.ErrTooLate):
		b.reply(chatID, "До визита осталось слишком мало времени, отмена через бота недоступна. Свяжитесь с администратором.")
	case errors.Is(err, booking.ErrNotFound):
		b.reply(chatID, "Запись не найдена.")
	case err != nil:
		b.replyErr(ctx, chatID, "Не удалось отменить запись", err)
	default:
		b.reply(chatID, "Запись отменена.")
	}
}

// handleAdminCommand returns true when the text matched an operator
// command. Caller must have passed the admin check.
func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, text string) bool {
	fields := strings.Fields(text)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/addslot":
		b.cmdAddSlot(ctx, chatID, args)
	case "/delslot":
		b.cmdDelSlot(ctx, chatID, args)
	case "/slots":
		b.cmdSlots(ctx, chatID)
	case "/appointments":
		b.cmdAppointments(ctx, chatID)
	case "/cancel":
		b.cmdCancel(ctx, chatID, args)
	case "/move":
		b.cmdMove(ctx, chatID, args)
	case "/unblock":
		b.cmdUnblock(chatID, args)
	case "/addservice":
		b.cmdAddService(ctx, chatID, args)
	case "/editservice":
		b.cmdEditService(ctx, chatID, args)
	case "/delservice":
		b.cmdDelService(ctx, chatID, args)
	case "/setphoto":
		b.cmdSetPhoto(ctx, chatID, args)
	case "/export":
		b.cmdExport(ctx, chatID)
	default:
		return false
	}
	return true
}

func (b *Bot) cmdAddSlot(ctx context.Context, chatID int64, args []string) {
	if len(args) < 3 {
		b.reply(chatID, "Формат: /addslot ДД.ММ.ГГГГ ЧЧ:ММ <услуга>")
		return
	}
	date, tm := args[0], args[1]
	service := strings.Join(args[2:], " ")
	err := b.engine.AddSlot(ctx, date, tm, service)
	if errors.Is(err, booking.ErrNotFound) {
		b.reply(chatID, "Нет такой услуги. Список: /help, услуги добавляются через /addservice.")
		return
	}
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось добавить слот", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Слот добавлен: %s %s %s", date, tm, service))
}

func (b *Bot) cmdDelSlot(ctx context.Context, chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Формат: /delslot <id>")
		return
	}
	err := b.engine.RemoveSlot(ctx, id)
	switch {
	case errors.Is(err, booking.ErrSlotBooked):
		b.reply(chatID, "Слот занят записью. Сначала отмените запись.")
	case errors.Is(err, booking.ErrNotFound):
		b.reply(chatID, "Слот не найден.")
	case err != nil:
		b.replyErr(ctx, chatID, "Не удалось удалить слот", err)
	default:
		b.reply(chatID, "Слот удалён.")
	}
}

func (b *Bot) cmdSlots(ctx context.Context, chatID int64) {
	slots, err := b.engine.Slots(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить слоты", err)
		return
	}
	if len(slots) == 0 {
		b.reply(chatID, "Слотов нет.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Слоты:\n")
	for _, s := range slots {
		mark := "🟢"
		if s.IsBooked {
			mark = "🔴"
		}
		fmt.Fprintf(&sb, "%s #%d %s %s %s\n", mark, s.ID, s.Date, s.Time, s.ServiceName)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) cmdAppointments(ctx context.Context, chatID int64) {
	appts, err := b.engine.Appointments(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить записи", err)
		return
	}
	if len(appts) == 0 {
		b.reply(chatID, "Записей нет.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Записи:\n")
	for _, a := range appts {
		fmt.Fprintf(&sb, "#%d %s %s %s — %s, %s\n", a.ID, a.Date, a.Time, a.ServiceName, a.FullName, a.Phone)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) cmdCancel(ctx context.Context, chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Формат: /cancel <id>")
		return
	}
	err := b.engine.Cancel(ctx, id, time.Now(), true)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		b.reply(chatID, "Запись не найдена.")
	case err != nil:
		b.replyErr(ctx, chatID, "Не удалось отменить запись", err)
	default:
		b.reply(chatID, "Запись отменена, слот освобождён.")
	}
}

func (b *Bot) cmdMove(ctx context.Context, chatID int64, args []string) {
	if len(args) != 3 {
		b.reply(chatID, "Формат: /move <id> ДД.ММ.ГГГГ ЧЧ:ММ")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Некорректный id записи.")
		return
	}
	appt, err := b.engine.Move(ctx, id, args[1], args[2])
	switch {
	case errors.Is(err, booking.ErrNotFound):
		b.reply(chatID, "Запись не найдена.")
	case errors.Is(err, booking.ErrSlotConflict):
		b.reply(chatID, "Нет свободного слота на это время.")
	case err != nil:
		b.replyErr(ctx, chatID, "Не удалось перенести запись", err)
	default:
		b.reply(chatID, fmt.Sprintf("Запись #%d перенесена на %s %s.", appt.ID, appt.Date, appt.Time))
		b.notifyCaller(ctx, appt.CallerID, fmt.Sprintf(
			"Ваша запись на %s перенесена: %s в %s.", appt.ServiceName, appt.Date, appt.Time))
	}
}

func (b *Bot) cmdUnblock(chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Формат: /unblock <caller_id>")
		return
	}
	b.guard.Unblock(id)
	b.reply(chatID, "Блокировка снята.")
}

func (b *Bot) cmdAddService(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		b.reply(chatID, "Формат: /addservice <название>")
		return
	}
	svc := &models.Service{Name: strings.Join(args, " "), IsActive: true}
	if err := b.catalog.AddService(ctx, svc); err != nil {
		b.replyErr(ctx, chatID, "Не удалось добавить услугу", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Услуга добавлена: #%d %s", svc.ID, svc.Name))
}

func (b *Bot) cmdEditService(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(chatID, "Формат: /editservice <id> <новое название>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Некорректный id услуги.")
		return
	}
	svc, err := b.catalog.ServiceByID(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		b.reply(chatID, "Услуга не найдена.")
		return
	}
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить услугу", err)
		return
	}
	svc.Name = strings.Join(args[1:], " ")
	if err := b.catalog.UpdateService(ctx, svc); err != nil {
		b.replyErr(ctx, chatID, "Не удалось обновить услугу", err)
		return
	}
	b.reply(chatID, "Услуга обновлена.")
}

func (b *Bot) cmdSetPhoto(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		b.reply(chatID, "Формат: /setphoto <id> <file_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Некорректный id услуги.")
		return
	}
	svc, err := b.catalog.ServiceByID(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		b.reply(chatID, "Услуга не найдена.")
		return
	}
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить услугу", err)
		return
	}
	svc.PhotoRef = args[1]
	if err := b.catalog.UpdateService(ctx, svc); err != nil {
		b.replyErr(ctx, chatID, "Не удалось сохранить фото", err)
		return
	}
	b.reply(chatID, "Фото услуги обновлено.")
}

func (b *Bot) cmdDelService(ctx context.Context, chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Формат: /delservice <id>")
		return
	}
	err := b.catalog.DeactivateService(ctx, id)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		b.reply(chatID, "Услуга не найдена.")
	case err != nil:
		b.replyErr(ctx, chatID, "Не удалось удалить услугу", err)
	default:
		b.reply(chatID, "Услуга скрыта из каталога.")
	}
}

func (b *Bot) cmdExport(ctx context.Context, chatID int64) {
	appts, err := b.engine.Appointments(ctx)
	if err != nil {
		b.replyErr(ctx, chatID, "Не удалось получить записи", err)
		return
	}
	var buf bytes.Buffer
	if err := export.AppointmentsReport(appts, &buf); err != nil {
		b.replyErr(ctx, chatID, "Не удалось сформировать отчёт", err)
		return
	}
	name := fmt.Sprintf("appointments_%s.xlsx", time.Now().Format("02-01-2006"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	if _, err := b.tg.Send(doc); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("export upload failed")
	}
}

func (b *Bot) helpText(userID int64) string {
	var sb strings.Builder
	sb.WriteString("Команды:\n/start — записаться\n/services — каталог услуг\n/my — мои записи\n/cancel <id> — отменить запись\n/help — справка")
	if b.isAdmin(userID) {
		sb.WriteString("\n\nОператор:\n/addslot ДД.ММ.ГГГГ ЧЧ:ММ <услуга>\n/delslot <id>\n/slots\n/appointments\n/move <id> <дата> <время>\n/unblock <caller_id>\n/addservice <название>\n/editservice <id> <название>\n/setphoto <id> <file_id>\n/delservice <id>\n/export")
	}
	return sb.String()
}

// Notify implements reminder delivery.
func (b *Bot) Notify(ctx context.Context, callerID int64, appt models.Appointment, kind string) error {
	var text string
	switch kind {
	case booking.KindDayAhead:
		text = fmt.Sprintf("Напоминаем: завтра, %s в %s, у вас запись на %s.", appt.Date, appt.Time, appt.ServiceName)
	case booking.KindHourAhead:
		text = fmt.Sprintf("Через час, в %s, у вас запись на %s.", appt.Time, appt.ServiceName)
	default:
		text = fmt.Sprintf("Напоминаем о записи %s %s на %s.", appt.Date, appt.Time, appt.ServiceName)
	}
	msg := tgbotapi.NewMessage(callerID, text)
	_, err := b.tg.Send(msg)
	return err
}

// HandleBookingEvent forwards booking lifecycle events to operators.
func (b *Bot) HandleBookingEvent(event events.Event) {
	a := event.Appointment
	var text string
	switch event.Type {
	case events.TypeBookingCreated:
		text = fmt.Sprintf("Новая запись #%d: %s %s %s\n%s, %s",
			a.ID, a.Date, a.Time, a.ServiceName, a.FullName, a.Phone)
	case events.TypeBookingCancelled:
		text = fmt.Sprintf("Отмена записи #%d: %s %s %s (%s)",
			a.ID, a.Date, a.Time, a.ServiceName, a.FullName)
	case events.TypeBookingMoved:
		text = fmt.Sprintf("Перенос записи #%d: теперь %s %s (%s)",
			a.ID, a.Date, a.Time, a.ServiceName)
	default:
		return
	}
	for adminID := range b.admins {
		if _, err := b.tg.Send(tgbotapi.NewMessage(adminID, text)); err != nil {
			b.logger.Error().Err(err).Int64("admin_id", adminID).Msg("operator notify failed")
		}
	}
}

func (b *Bot) notifyCaller(ctx context.Context, callerID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(callerID, text)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("caller_id", callerID).Msg("caller notify failed")
	}
}

func (b *Bot) sendReply(chatID int64, reply conversation.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if kb, ok := choiceKeyboard(reply); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

// choiceKeyboard renders reply choices as inline buttons, two per row,
// with a back button while the flow is still open.
func choiceKeyboard(reply conversation.Reply) (tgbotapi.InlineKeyboardMarkup, bool) {
	if reply.Done || len(reply.Choices) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range reply.Choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c, "pick:"+c))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "back"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) replyErr(ctx context.Context, chatID int64, text string, err error) {
	zerolog.Ctx(ctx).Error().Err(err).Msg(text)
	b.reply(chatID, text+". Попробуйте позже.")
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
