package telegram

import (
	"github.com/agentworkforce/moviebot/internal/moviebot"
)

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// ToEvent extracts the envelope the engine works on. Updates the bot does
// not act on, and callbacks whose message is gone, yield ok=false. A
// callback without data is still passed on so the failure is escalated.
func ToEvent(u Update) (moviebot.Event, bool) {
	switch {
	case u.Message != nil:
		ev := moviebot.Event{
			Kind:   moviebot.EventMessage,
			ChatID: u.Message.Chat.ID,
			Text:   u.Message.Text,
		}
		if u.Message.From != nil {
			ev.UserID = u.Message.From.ID
			ev.HasUser = true
		}
		return ev, true
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Message == nil {
			return moviebot.Event{}, false
		}
		return moviebot.Event{
			Kind:         moviebot.EventCallback,
			ChatID:       q.Message.Chat.ID,
			UserID:       q.From.ID,
			HasUser:      true,
			CallbackData: q.Data,
			CallbackID:   q.ID,
		}, true
	default:
		return moviebot.Event{}, false
	}
}
