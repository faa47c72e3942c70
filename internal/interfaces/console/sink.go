package console

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"sync"
	"time"

	"xspread/internal/application/port"
)

// Sink 把通知打印到终端，用于不接 Telegram 时本地运行
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSink(out io.Writer) *Sink {
	if out == nil {
		out = os.Stdout
	}
	return &Sink{out: out}
}

func (s *Sink) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\n%s [chat %d]\n%s\n", time.Now().Format("2006-01-02 15:04:05"), chatID, stripTags(text))
	return err
}

// stripTags 去掉 HTML 标签并还原实体，终端里只看纯文本
func stripTags(s string) string {
	out := make([]byte, 0, len(s))
	inTag := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			inTag = true
		case c == '>' && inTag:
			inTag = false
		case !inTag:
			out = append(out, c)
		}
	}
	return html.UnescapeString(string(out))
}

var _ port.Notifier = (*Sink)(nil)
