package chat

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

// Transcript is the ordered conversation of one chat session. It lives in memory only.
type Transcript struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// AddUser добавляет реплику пользователя.
func (t *Transcript) AddUser(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, models.NewChatMessage(models.ChatRoleUser, text))
}

// Messages возвращает копию истории.
func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.ChatMessage, len(t.messages))
	for i, message := range t.messages {
		parts := make([]models.ChatPart, len(message.Parts))
		copy(parts, message.Parts)
		out[i] = models.ChatMessage{Role: message.Role, Parts: parts}
	}
	return out
}

// History возвращает историю без последней реплики пользователя, если она еще без ответа.
func (t *Transcript) History() []models.ChatMessage {
	messages := t.Messages()
	if n := len(messages); n > 0 && messages[n-1].Role == models.ChatRoleUser {
		return messages[:n-1]
	}
	return messages
}

// Collect читает поток до конца и фиксирует ровно один ход модели.
// При нормальном завершении в историю попадает весь текст, при обрыве или пустом
// ответе только Apology. onChunk получает фрагменты в порядке поступления.
// Возвращает зафиксированный текст и ошибку потока, если он оборвался.
func (t *Transcript) Collect(stream ai.Stream, onChunk func(string)) (string, error) {
	defer stream.Close()

	var reply strings.Builder
	var streamErr error
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if !isEOF(err) {
				streamErr = err
			}
			break
		}
		reply.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	text := reply.String()
	if streamErr != nil || strings.TrimSpace(text) == "" {
		text = Apology
	}

	t.mu.Lock()
	t.messages = append(t.messages, models.NewChatMessage(models.ChatRoleModel, text))
	t.mu.Unlock()

	return text, streamErr
}

// Fail фиксирует Apology, когда поток не удалось открыть.
func (t *Transcript) Fail() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, models.NewChatMessage(models.ChatRoleModel, Apology))
	return Apology
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
