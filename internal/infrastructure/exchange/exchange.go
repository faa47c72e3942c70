package exchange

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsDialTimeout  = 10 * time.Second
	minBackoff     = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// Stream 带自动重连的 WebSocket 订阅
type Stream struct {
	Name string
	URL  string
	// OnConnect 连接建立后调用（例如发送订阅消息），返回错误会断开重连
	OnConnect func(conn *websocket.Conn) error
	OnMessage func(b []byte)
}

// Run 阻塞直到 ctx 结束；断线后指数退避重连
func (s *Stream) Run(ctx context.Context) {
	backoff := minBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		log.Info().Str("stream", s.Name).Str("url", s.URL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, wsDialTimeout)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, s.URL, nil)
		cancel()
		if err != nil {
			log.Error().Str("stream", s.Name).Err(err).Msg("ws dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = MinDuration(backoff*2, maxBackoff)
			continue
		}

		if s.OnConnect != nil {
			if err := s.OnConnect(conn); err != nil {
				_ = conn.Close()
				log.Error().Str("stream", s.Name).Err(err).Msg("ws subscribe failed")
				if !sleepCtx(ctx, backoff) {
					return
				}
				backoff = MinDuration(backoff*2, maxBackoff)
				continue
			}
		}

		backoff = minBackoff
		log.Info().Str("stream", s.Name).Msg("ws connected")

		err = ReadWithPing(ctx, conn, s.OnMessage)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Warn().Str("stream", s.Name).Err(err).Msg("ws disconnected, reconnecting")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = MinDuration(backoff*2, maxBackoff)
	}
}

// ReadWithPing 读取消息并定期发送 ping，读超时由 pong 和消息共同续期
func ReadWithPing(ctx context.Context, conn *websocket.Conn, onMessage func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			if onMessage != nil {
				onMessage(b)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// 关闭连接让读协程退出
			_ = conn.Close()
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// MinDuration returns the minimum of two durations
func MinDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// BuildQueryURL 在 base 的路径后追加 path 并设置查询串
func BuildQueryURL(base, path, query string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("base url is empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query
	return u.String(), nil
}
