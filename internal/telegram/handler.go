package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

const helpText = `<b>Commands:</b>

/pd piece - Can I use this score? (public domain check)
/search piece - Find the piece on IMSLP
/help - Show this help

Plain text works like /pd.

<b>Examples:</b>
• /pd Chopin Nocturne Op. 9
• /search ysaye 6 sonata
• Beethoven Op 90

Verdicts: YES, NO, PARTIALLY, OPEN LICENSE, LIKELY YES, LIKELY NO, IT DEPENDS, UNKNOWN.
Editions and arrangements can carry their own copyright, so check the specific file before use.`

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.Bool("is_command", msg.IsCommand()),
	)

	query, mode, ok := ParseQueryCommand(msg.Text)
	if ok {
		h.handleQuery(ctx, msg, query, mode)
		return
	}

	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, "Hi! Send me the name of a piece and I will look it up on IMSLP and tell you whether the score is in the public domain.\n\n"+helpText)
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	default:
		h.bot.Send(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (h *Handler) handleQuery(ctx context.Context, msg *tgbotapi.Message, query string, mode domain.Mode) {
	if query == "" {
		h.bot.Send(msg.Chat.ID, "Send a piece name, for example: /pd Chopin Nocturne Op. 9")
		return
	}

	clientID := "tg:" + strconv.FormatInt(msg.From.ID, 10)
	if !h.bot.rateLimiter.Allow(clientID) {
		h.bot.logger.Warn("rate limit exceeded",
			zap.String("client", clientID),
			zap.Time("reset_at", h.bot.rateLimiter.ResetTime(clientID)),
		)
		h.bot.RecordRateLimitHit()
		h.bot.Send(msg.Chat.ID, "Too many requests. Please wait a minute.")
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	req := &domain.LookupRequest{
		Text:     query,
		Mode:     mode,
		ClientID: clientID,
	}

	var (
		text string
		err  error
	)
	if mode == domain.ModeSearch {
		var resp *domain.SearchResponse
		if resp, err = h.bot.svc.Search(ctx, req); err == nil {
			text = FormatSearchResponse(resp)
		}
	} else {
		var resp *domain.CheckResponse
		if resp, err = h.bot.svc.CheckPublicDomain(ctx, req); err == nil {
			text = FormatCheckResponse(resp)
		}
	}
	if err != nil {
		h.bot.logger.Error("lookup failed",
			zap.Error(err),
			zap.String("client", clientID),
			zap.String("mode", mode.String()),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	for _, m := range SplitMessage(text, maxMessageLen) {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQueryTooLong):
		return fmt.Sprintf("Query is too long. Maximum %d characters.", domain.MaxQueryLength)
	case errors.Is(err, domain.ErrUnknownMode):
		return "Unknown mode. Use /pd or /search."
	default:
		return "Something went wrong. Try again later."
	}
}
