package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const longPollSeconds = 30

// TelegramOptions configure the Telegram transport.
type TelegramOptions struct {
	Token    string
	Endpoint string // empty uses the public Bot API
	Router   *Router
	Logger   *slog.Logger
}

// Telegram feeds Bot API updates through a Router and sends the replies back.
type Telegram struct {
	api    *tgbotapi.BotAPI
	router *Router
	logger *slog.Logger
}

// NewTelegram authenticates against the Bot API and returns a transport ready
// to Run.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("router is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		api:    api,
		router: opts.Router,
		logger: logger.With("component", "telegram", "bot", api.Self.UserName),
	}, nil
}

// Run registers the command menu and long-polls for updates until ctx is
// cancelled.
func (t *Telegram) Run(ctx context.Context) error {
	t.registerCommands()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = longPollSeconds
	updates := t.api.GetUpdatesChan(cfg)
	defer t.api.StopReceivingUpdates()

	t.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handle(update)
		}
	}
}

func (t *Telegram) registerCommands() {
	commands := make([]tgbotapi.BotCommand, 0, len(Commands))
	for _, c := range Commands {
		commands = append(commands, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		t.logger.Warn("register command menu failed", "error", err)
	}
}

func (t *Telegram) handle(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		t.handleMessage(update.Message)
	}
}

func (t *Telegram) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	t.logger.Info("message received", "user", msg.From.ID, "username", msg.From.UserName)
	if !msg.IsCommand() {
		return
	}
	for _, reply := range t.router.Handle(Request{UserID: msg.From.ID, Text: msg.Text}) {
		t.send(msg.Chat.ID, reply)
	}
}

func (t *Telegram) handleCallback(query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}
	t.logger.Info("callback received", "user", query.From.ID, "username", query.From.UserName)
	if _, err := t.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		t.logger.Debug("answer callback failed", "error", err)
	}

	replies := t.router.Handle(Request{UserID: query.From.ID, Text: query.Data})
	if len(replies) == 0 || query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID
	t.edit(chatID, query.Message.MessageID, replies[0])
	for _, reply := range replies[1:] {
		t.send(chatID, reply)
	}
}

func (t *Telegram) send(chatID int64, reply Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if len(reply.Buttons) > 0 {
		msg.ReplyMarkup = keyboard(reply.Buttons)
	}
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("send message failed", "chat", chatID, "error", err)
	}
}

func (t *Telegram) edit(chatID int64, messageID int, reply Reply) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	if reply.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	if len(reply.Buttons) > 0 {
		markup := keyboard(reply.Buttons)
		edit.ReplyMarkup = &markup
	}
	if _, err := t.api.Send(edit); err != nil {
		// Pressing the button for the view already shown is rejected as
		// "message is not modified".
		t.logger.Warn("edit message failed", "chat", chatID, "message", messageID, "error", err)
	}
}

func keyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
