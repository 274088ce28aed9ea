package api

import (
	"context"

	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
	"github.com/55onurisik/lmsmobile/internal/model"
)

type chatMessagesResponse struct {
	Success  bool                `json:"success"`
	Messages []model.ChatMessage `json:"messages"`
}

// ChatMessages fetches the full chat history with the teacher. Records
// without an id are dropped.
func (c *Client) ChatMessages(ctx context.Context) ([]model.ChatMessage, error) {
	var res chatMessagesResponse
	if err := c.get(ctx, "/chat", nil, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrChatLoad")}
	}
	msgs := res.Messages[:0]
	for _, m := range res.Messages {
		if m.ID != 0 {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

type sendChatResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// SendChatMessage posts one message to the teacher and returns the
// server-assigned id.
func (c *Client) SendChatMessage(ctx context.Context, body string) (int64, error) {
	req := struct {
		Message      string `json:"message"`
		ReceiverID   int64  `json:"receiver_id"`
		ReceiverType string `json:"receiver_type"`
		SenderType   string `json:"sender_type"`
	}{
		Message:      body,
		ReceiverID:   1,
		ReceiverType: model.SenderTeacher,
		SenderType:   model.SenderStudent,
	}
	var res sendChatResponse
	if err := c.post(ctx, "/chat/send", req, &res); err != nil {
		return 0, err
	}
	if !res.Success || res.ID == 0 {
		return 0, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrChatSend")}
	}
	return res.ID, nil
}
