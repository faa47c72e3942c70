package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestSinkStripsHTML(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	err := s.SendMessage(context.Background(), 9, `S: 1.0 | <a href="https://x">Trade</a> &amp; more`)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "S: 1.0 | Trade & more") || !strings.Contains(out, "[chat 9]") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSinkCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewSink(&bytes.Buffer{}).SendMessage(ctx, 1, "x"); err == nil {
		t.Error("expected error on canceled context")
	}
}

type upperHandler struct{ seen []string }

func (h *upperHandler) Handle(_ context.Context, chatID int64, text string) string {
	h.seen = append(h.seen, text)
	if text == "/silent" {
		return ""
	}
	return strings.ToUpper(text)
}

func TestREPLRoutesLines(t *testing.T) {
	var buf bytes.Buffer
	h := &upperHandler{}
	in := strings.NewReader("/list\n\n  /silent  \n/help\n")

	if err := NewREPL(in, NewSink(&buf), h).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(h.seen) != 3 {
		t.Errorf("expected 3 commands, got %v", h.seen)
	}
	out := buf.String()
	if !strings.Contains(out, "/LIST") || !strings.Contains(out, "/HELP") || strings.Contains(out, "/SILENT") {
		t.Errorf("unexpected output %q", out)
	}
}
