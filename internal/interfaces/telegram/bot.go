package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"xspread/internal/interfaces/command"
)

const (
	minPollBackoff = time.Second
	maxPollBackoff = 30 * time.Second
)

// Handler 处理一条文本消息并返回回复（空串表示不回复）
type Handler interface {
	Handle(ctx context.Context, chatID int64, text string) string
}

// Bot 长轮询 getUpdates，每条消息在独立协程中处理
type Bot struct {
	client      *Client
	handler     Handler
	pollTimeout time.Duration

	wg sync.WaitGroup
}

func NewBot(client *Client, handler Handler, pollTimeout time.Duration) *Bot {
	return &Bot{client: client, handler: handler, pollTimeout: pollTimeout}
}

// Run 阻塞直到 ctx 结束，并等待进行中的消息处理完成
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	if err := b.client.SetMyCommands(ctx, menu()); err != nil {
		log.Warn().Err(err).Msg("telegram setMyCommands failed")
	}
	log.Info().Msg("telegram bot polling started")

	var offset int64
	backoff := minPollBackoff
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			wait := backoff
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			log.Error().Err(err).Dur("retry_in", wait).Msg("telegram getUpdates failed")
			if !sleep(ctx, wait) {
				return nil
			}
			backoff = min(backoff*2, maxPollBackoff)
			continue
		}
		backoff = minPollBackoff

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			msg := u.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.dispatch(ctx, msg)
			}()
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *Message) {
	reply := b.handler.Handle(ctx, msg.Chat.ID, msg.Text)
	if reply == "" || ctx.Err() != nil {
		return
	}
	if err := b.client.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		log.Warn().Int64("chat", msg.Chat.ID).Err(err).Msg("telegram reply failed")
	}
}

func menu() []BotCommand {
	out := make([]BotCommand, len(command.Commands))
	for i, c := range command.Commands {
		out[i] = BotCommand{Command: c.Name, Description: c.Description}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
