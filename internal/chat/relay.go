package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const (
	MaxMessageLength = 4000
	MaxHistory       = 100
)

// errAbandoned записывается в журнал, когда поток закрыт до конца ответа, например при уходе клиента.
var errAbandoned = errors.New("chat stream closed before the reply finished")

const Disclaimer = "*Please note: This information is for general wellness guidance and is not medical advice. If you have specific dietary needs or health concerns, it's always best to consult with a healthcare professional or a registered dietitian.*"

// Apology replaces a model turn that could not be received in full.
const Apology = "Sorry, I'm having trouble connecting right now. Please try again later."

// SystemInstruction задается один раз на сессию и не меняется между ходами.
const SystemInstruction = `You are Smart Fitness Chat, a friendly and helpful AI nutrition and wellness assistant. Your goal is to provide clear, safe, and encouraging advice. Structure every response in the following format: 1. A clear, friendly title for the topic. 2. A brief introductory sentence. 3. A list of actionable points using asterisks. Use markdown for bolding to highlight the main idea of each point (e.g., "**Eat a Variety of Foods:** ..."). 4. End with this exact disclaimer: "` + Disclaimer + `"`

type Relay struct {
	client ai.Client
	audit  ai.Auditor
}

// NewRelay создает ретранслятор чата поверх клиента модели.
func NewRelay(client ai.Client, auditor ai.Auditor) *Relay {
	if auditor == nil {
		auditor = ai.NopAuditor()
	}
	return &Relay{client: client, audit: auditor}
}

// Open проверяет сообщение и историю и открывает поток ответа модели.
// Вызывающий обязан закрыть поток.
func (r *Relay) Open(ctx context.Context, history []models.ChatMessage, message string) (ai.Stream, error) {
	const op = "chat.open"

	if err := validate(history, message); err != nil {
		return nil, err
	}

	converted := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		converted = append(converted, ai.Message{Role: string(turn.Role), Content: turn.Text()})
	}

	stream, err := r.client.StreamChat(ctx, ai.ChatRequest{
		System:  SystemInstruction,
		History: converted,
		Message: message,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Wrap(apperr.KindUpstream, op, err)
		}
		r.record(ctx, message, "", err)
		return nil, err
	}

	return &auditedStream{
		Stream:  stream,
		relay:   r,
		ctx:     ctx,
		message: message,
	}, nil
}

func (r *Relay) record(ctx context.Context, message, reply string, err error) {
	exchange := ai.Exchange{
		RequestType: ai.RequestTypeChat,
		Provider:    r.client.Provider(),
		Model:       r.client.Model(),
		Prompt:      message,
		Err:         err,
	}
	if reply != "" {
		exchange.Raw = []byte(reply)
	}
	_ = r.audit.Record(ctx, exchange)
}

func validate(history []models.ChatMessage, message string) error {
	fields := make(map[string]string)

	trimmed := strings.TrimSpace(message)
	switch {
	case trimmed == "":
		fields["message"] = "message is required"
	case utf8.RuneCountInString(message) > MaxMessageLength:
		fields["message"] = fmt.Sprintf("message must be at most %d characters", MaxMessageLength)
	}

	if len(history) > MaxHistory {
		fields["history"] = fmt.Sprintf("history must contain at most %d messages", MaxHistory)
	}
	for i, turn := range history {
		if turn.Role != models.ChatRoleUser && turn.Role != models.ChatRoleModel {
			fields["history"] = fmt.Sprintf("history[%d] has unknown role %q", i, turn.Role)
			break
		}
	}

	if len(fields) > 0 {
		return apperr.Validation("chat.open", fields)
	}
	return nil
}

// auditedStream записывает ход в журнал, когда поток завершился или оборвался.
type auditedStream struct {
	ai.Stream
	relay   *Relay
	ctx     context.Context
	message string
	reply   strings.Builder
	done    bool
}

func (s *auditedStream) Recv() (string, error) {
	chunk, err := s.Stream.Recv()
	if err == nil {
		s.reply.WriteString(chunk)
		return chunk, nil
	}

	if !s.done {
		s.done = true
		var cause error
		if !isEOF(err) {
			cause = err
		}
		s.relay.record(s.ctx, s.message, s.reply.String(), cause)
	}
	return chunk, err
}

// Close записывает незавершенный ход. Контекст запроса к этому моменту обычно уже отменен.
func (s *auditedStream) Close() error {
	if !s.done {
		s.done = true
		s.relay.record(context.WithoutCancel(s.ctx), s.message, s.reply.String(), errAbandoned)
	}
	return s.Stream.Close()
}
