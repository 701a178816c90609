package bot

import (
	"context"
	"strings"
	"unicode/utf8"

	"gopkg.in/telebot.v4"
)

// maxMessageLen - лимит Telegram на длину текста сообщения
const maxMessageLen = 4096

// Notifier - исходящие сообщения в чат (авторассылка)
type Notifier struct {
	bot *telebot.Bot
}

func NewNotifier(tb *telebot.Bot) *Notifier {
	return &Notifier{bot: tb}
}

// SendText - длинный отчёт уходит несколькими сообщениями, разрез по границам блоков
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string) error {
	chat := &telebot.Chat{ID: chatID}
	return sendSplit(text, func(part string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := n.bot.Send(chat, part)
		return err
	})
}

// sendSplit - общий путь для ответа на команду и для авторассылки: текст уходит частями по лимиту
func sendSplit(text string, send func(part string) error) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := send(part); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage - режет текст на части не длиннее limit байт; блоки (через пустую строку) не разрываются,
// если блок сам по себе не длиннее limit
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, block := range strings.Split(text, "\n\n") {
		for len(block) > limit {
			flush()
			cut := strings.LastIndexByte(block[:limit], '\n')
			if cut <= 0 {
				cut = limit
				for cut > 0 && !utf8.RuneStart(block[cut]) {
					cut--
				}
			}
			parts = append(parts, block[:cut])
			block = strings.TrimPrefix(block[cut:], "\n")
		}
		if cur.Len() > 0 && cur.Len()+2+len(block) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(block)
	}
	flush()
	return parts
}
