package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbot/internal/booking"
	"salonbot/internal/catalog"
	"salonbot/internal/conversation"
	"salonbot/internal/database"
	"salonbot/internal/events"
	"salonbot/internal/floodguard"
	"salonbot/internal/models"
)

type fakeTelegramClient struct {
	sent    []tgbotapi.Chattable
	updates chan tgbotapi.Update
	stopped bool
}

func (c *fakeTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.sent = append(c.sent, msg)
	return tgbotapi.Message{}, nil
}

func (c *fakeTelegramClient) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *fakeTelegramClient) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if c.updates == nil {
		c.updates = make(chan tgbotapi.Update)
	}
	return c.updates
}

func (c *fakeTelegramClient) StopReceivingUpdates() {
	c.stopped = true
}

func (c *fakeTelegramClient) SelfUser() tgbotapi.User {
	return tgbotapi.User{UserName: "testbot"}
}

func (c *fakeTelegramClient) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.sent)
	msg, ok := c.sent[len(c.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent is not a message")
	return msg.Text
}

func newTestBot(t *testing.T, admins []int64) (*Bot, *fakeTelegramClient, *booking.Engine) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cat := catalog.New(db, logger)
	engine := booking.New(db, booking.Rules{}, events.NewBus(), logger)
	guard := floodguard.New(floodguard.DefaultConfig(), logger)
	handler := conversation.NewHandler(guard, engine, cat, 10*time.Minute, logger)

	tg := &fakeTelegramClient{}
	b, err := NewWithTelegramClient(tg, handler, engine, cat, guard, admins, &logger)
	require.NoError(t, err)
	return b, tg, engine
}

func message(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cq1",
		From:    &tgbotapi.User{ID: userID},
		Data:    data,
		Message: message(userID, ""),
	}
}

func TestCommandRequiresExactMatch(t *testing.T) {
	b, tg, _ := newTestBot(t, nil)
	ctx := context.Background()

	b.handleMessage(ctx, message(42, "/startanything"))
	assert.Contains(t, tg.lastText(t), "Неизвестная команда")

	b.handleMessage(ctx, message(42, "/myfoo"))
	assert.Contains(t, tg.lastText(t), "Неизвестная команда")

	// The real command still resolves.
	b.handleMessage(ctx, message(42, "/my"))
	assert.Contains(t, tg.lastText(t), "нет активных записей")
}

func TestStartStopsReceivingOnCancel(t *testing.T) {
	b, tg, _ := newTestBot(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.True(t, tg.stopped)
}

func TestStartShowsServiceChoices(t *testing.T) {
	b, tg, _ := newTestBot(t, nil)

	b.handleMessage(context.Background(), message(42, "/start"))

	require.Len(t, tg.sent, 1)
	msg := tg.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "услугу")

	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	var labels []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	assert.Contains(t, labels, "Маникюр")
	assert.Contains(t, labels, "⬅️ Назад")
}

func TestFullBookingThroughTelegram(t *testing.T) {
	b, tg, engine := newTestBot(t, nil)
	ctx := context.Background()

	date := models.FormatDate(time.Now().AddDate(0, 0, 1))
	require.NoError(t, engine.AddSlot(ctx, date, "10:00", "Маникюр"))

	b.handleMessage(ctx, message(42, "/start"))
	b.handleCallback(ctx, callback(42, "pick:Маникюр"))
	assert.Contains(t, tg.lastText(t), "дату")

	b.handleCallback(ctx, callback(42, "pick:"+date))
	b.handleCallback(ctx, callback(42, "pick:10:00"))
	assert.Contains(t, tg.lastText(t), "ФИО")

	b.handleMessage(ctx, message(42, "Анна Петрова"))
	b.handleCallback(ctx, callback(42, "pick:Нет"))
	b.handleMessage(ctx, message(42, "89991234567"))
	assert.Contains(t, tg.lastText(t), "Подтвердить")

	b.handleCallback(ctx, callback(42, "pick:Подтвердить"))
	assert.Contains(t, tg.lastText(t), "Вы записаны")

	appts, err := engine.CallerAppointments(ctx, 42)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "Маникюр", appts[0].ServiceName)
}

func TestMyAppointmentsEmpty(t *testing.T) {
	b, tg, _ := newTestBot(t, nil)

	b.handleMessage(context.Background(), message(42, "/my"))
	assert.Contains(t, tg.lastText(t), "нет активных записей")
}

func TestAdminCommandRequiresAdmin(t *testing.T) {
	b, tg, _ := newTestBot(t, []int64{1})

	b.handleMessage(context.Background(), message(42, "/addslot 15.06.2030 10:00 Маникюр"))
	assert.Contains(t, tg.lastText(t), "Неизвестная команда")

	b.handleMessage(context.Background(), message(1, "/addslot 15.06.2030 10:00 Маникюр"))
	assert.Contains(t, tg.lastText(t), "Слот добавлен")
}

func TestAdminSlotLifecycle(t *testing.T) {
	b, tg, engine := newTestBot(t, []int64{1})
	ctx := context.Background()

	b.handleMessage(ctx, message(1, "/addslot 15.06.2030 10:00 Маникюр"))
	b.handleMessage(ctx, message(1, "/slots"))
	assert.Contains(t, tg.lastText(t), "15.06.2030")

	slots, err := engine.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	b.handleMessage(ctx, message(1, "/delslot 1"))
	assert.Contains(t, tg.lastText(t), "Слот удалён")

	slots, err = engine.Slots(ctx)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAdminCancelFreesSlot(t *testing.T) {
	b, tg, engine := newTestBot(t, []int64{1})
	ctx := context.Background()

	require.NoError(t, engine.AddSlot(ctx, "15.06.2030", "10:00", "Маникюр"))
	appt, err := engine.Reserve(ctx, booking.ReserveRequest{
		CallerID:    42,
		ServiceName: "Маникюр",
		Date:        "15.06.2030",
		Time:        "10:00",
		FullName:    "Анна Петрова",
		Phone:       "+7 (999) 123-45-67",
	})
	require.NoError(t, err)

	b.handleMessage(ctx, message(1, "/cancel 1"))
	assert.Contains(t, tg.lastText(t), "отменена")

	err = engine.Cancel(ctx, appt.ID, time.Now(), true)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestUserCancelOwnershipCheck(t *testing.T) {
	b, tg, engine := newTestBot(t, nil)
	ctx := context.Background()

	require.NoError(t, engine.AddSlot(ctx, "15.06.2030", "10:00", "Маникюр"))
	_, err := engine.Reserve(ctx, booking.ReserveRequest{
		CallerID:    42,
		ServiceName: "Маникюр",
		Date:        "15.06.2030",
		Time:        "10:00",
		FullName:    "Анна Петрова",
		Phone:       "+7 (999) 123-45-67",
	})
	require.NoError(t, err)

	// A different caller cannot cancel someone else's appointment.
	b.handleMessage(ctx, message(43, "/cancel 1"))
	assert.Contains(t, tg.lastText(t), "не найдена")

	// The owner can, well ahead of the visit.
	b.handleMessage(ctx, message(42, "/cancel 1"))
	assert.Contains(t, tg.lastText(t), "отменена")
}

func TestServicesCatalogWithPhoto(t *testing.T) {
	b, tg, _ := newTestBot(t, []int64{1})
	ctx := context.Background()

	b.handleMessage(ctx, message(1, "/setphoto 1 AgACAgIAA"))
	assert.Contains(t, tg.lastText(t), "Фото услуги обновлено")

	tg.sent = nil
	b.handleMessage(ctx, message(42, "/services"))
	require.Len(t, tg.sent, 5)

	photos := 0
	for _, c := range tg.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			photos++
		}
	}
	assert.Equal(t, 1, photos)
}

func TestNotifyTexts(t *testing.T) {
	b, tg, _ := newTestBot(t, nil)
	ctx := context.Background()

	a := models.Appointment{ServiceName: "Маникюр", Date: "15.06.2030", Time: "10:00"}

	require.NoError(t, b.Notify(ctx, 42, a, booking.KindDayAhead))
	assert.Contains(t, tg.lastText(t), "завтра")

	require.NoError(t, b.Notify(ctx, 42, a, booking.KindHourAhead))
	assert.Contains(t, tg.lastText(t), "Через час")
}

func TestBookingEventNotifiesAdmins(t *testing.T) {
	b, tg, _ := newTestBot(t, []int64{1, 2})

	b.HandleBookingEvent(events.Event{
		Type: events.TypeBookingCreated,
		Appointment: models.Appointment{
			ID: 7, ServiceName: "Маникюр", Date: "15.06.2030", Time: "10:00",
			FullName: "Анна Петрова", Phone: "+7 (999) 123-45-67",
		},
	})

	require.Len(t, tg.sent, 2)
	msg := tg.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "Новая запись #7")
}
