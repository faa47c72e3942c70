package port

import "context"

// Notifier 消息发送端口（Telegram / 控制台）
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

