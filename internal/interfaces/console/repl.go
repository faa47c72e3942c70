package console

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// ChatID 控制台会话固定使用的 chat id
const ChatID int64 = 1

// Handler 与 Telegram 共用的命令路由
type Handler interface {
	Handle(ctx context.Context, chatID int64, text string) string
}

// REPL 从 in 逐行读取命令，回复写到 sink
type REPL struct {
	in      io.Reader
	sink    *Sink
	handler Handler
}

func NewREPL(in io.Reader, sink *Sink, handler Handler) *REPL {
	return &REPL{in: in, sink: sink, handler: handler}
}

// Run 读到 EOF 或 ctx 结束时返回
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if reply := r.handler.Handle(ctx, ChatID, line); reply != "" {
				if err := r.sink.SendMessage(ctx, ChatID, reply); err != nil {
					log.Warn().Err(err).Msg("console reply failed")
				}
			}
		}
	}
}
