package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/55onurisik/lmsmobile/internal/model"
)

// API is the slice of the gateway the chat screen needs.
type API interface {
	ChatMessages(ctx context.Context) ([]model.ChatMessage, error)
	SendChatMessage(ctx context.Context, body string) (int64, error)
}

// DefaultInterval is the fixed poll period.
const DefaultInterval = 5 * time.Second

// Poller keeps the chat history current with a fixed-interval fetch and
// handles optimistic sends. The loop is tied to its context: cancelling the
// context stops the ticker, so a dismissed chat screen never leaks a timer.
type Poller struct {
	client   API
	student  int64
	interval time.Duration

	mu       sync.Mutex
	messages []model.ChatMessage
	nextTemp int64
}

// New creates a poller for the given student.
func New(client API, studentID int64, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		student:  studentID,
		interval: interval,
		nextTemp: -1,
	}
}

// Run performs the first load (whose failure is surfaced) and then polls
// until ctx is cancelled. onUpdate runs after every successful refresh and
// after every local change; poll failures after the first load are
// swallowed so a working screen is not disrupted.
func (p *Poller) Run(ctx context.Context, onUpdate func([]model.ChatMessage)) error {
	if err := p.refresh(ctx); err != nil {
		return err
	}
	onUpdate(p.Messages())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				slog.Debug("chat poll failed", "error", err)
				continue
			}
			onUpdate(p.Messages())
		}
	}
}

// Messages returns a copy of the current history, pending sends included.
func (p *Poller) Messages() []model.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ChatMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Send inserts a tentative local message, posts it, and reconciles: on
// success the tentative record takes the server-assigned id; on failure it
// is removed entirely and the error is returned for display.
func (p *Poller) Send(ctx context.Context, body string) error {
	tempID := p.insertPending(body)

	id, err := p.client.SendChatMessage(ctx, body)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.messages {
		if p.messages[i].ID != tempID {
			continue
		}
		if err != nil {
			p.messages = append(p.messages[:i], p.messages[i+1:]...)
		} else {
			p.messages[i].ID = id
			p.messages[i].Pending = false
		}
		break
	}
	return err
}

func (p *Poller) insertPending(body string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	tempID := p.nextTemp
	p.nextTemp--
	p.messages = append(p.messages, model.ChatMessage{
		ID:         tempID,
		SenderID:   p.student,
		SenderType: model.SenderStudent,
		Body:       body,
		CreatedAt:  time.Now(),
		Pending:    true,
	})
	return tempID
}

// refresh replaces the server-backed part of the history, keeping any
// still-pending local sends at the tail.
func (p *Poller) refresh(ctx context.Context) error {
	msgs, err := p.client.ChatMessages(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var pending []model.ChatMessage
	for _, m := range p.messages {
		if m.Pending {
			pending = append(pending, m)
		}
	}
	p.messages = append(msgs, pending...)
	return nil
}
