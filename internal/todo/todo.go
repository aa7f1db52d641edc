package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

// StorageKey is the well-known key the list is persisted under.
const StorageKey = "wellness-todos"

const (
	MaxTextLength = 500
	MaxItems      = 200
)

var (
	ErrNotFound     = errors.New("todo: key not found")
	ErrOutOfRange   = errors.New("todo: index out of range")
	ErrEmptyText    = errors.New("todo: text is required")
	ErrTextTooLong  = errors.New("todo: text is too long")
	ErrListTooLarge = errors.New("todo: too many items")
)

// Storage хранит сериализованный список под ключом. Get возвращает ErrNotFound, если ключа нет.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Seed возвращает стартовый список для новой сессии.
func Seed() []models.TodoItem {
	return []models.TodoItem{
		{Text: "Drink 8 glasses of water", Completed: true},
		{Text: "Eat a salad for lunch", Completed: false},
		{Text: "Go for a 30-minute walk", Completed: false},
	}
}

type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// List is a persisted to-do list. Every mutation writes the whole list through to storage.
// Write failures are logged and never returned: persistence is best effort.
type List struct {
	mu      sync.Mutex
	items   []models.TodoItem
	storage Storage
	key     string
	logger  *slog.Logger
}

// Load читает список из хранилища. Пустое или поврежденное хранилище дает Seed.
// Прочие ошибки чтения возвращаются, список при этом не создается.
func Load(ctx context.Context, storage Storage, logger *slog.Logger) (*List, error) {
	if logger == nil {
		logger = slog.Default()
	}

	list := &List{storage: storage, key: StorageKey, logger: logger}

	payload, err := storage.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
		list.items = Seed()
	case err != nil:
		return nil, fmt.Errorf("read todos: %w", err)
	default:
		items, decodeErr := Decode(payload)
		if decodeErr != nil {
			logger.Error("failed to parse todos", slog.String("error", decodeErr.Error()))
			items = Seed()
		}
		list.items = items
	}

	return list, nil
}

// Items возвращает копию текущего списка.
func (l *List) Items() []models.TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.items)
}

// Add добавляет пункт в конец списка. Текст обрезается по краям.
func (l *List) Add(ctx context.Context, text string) (models.TodoItem, error) {
	trimmed, err := normalizeText(text)
	if err != nil {
		return models.TodoItem{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) >= MaxItems {
		return models.TodoItem{}, ErrListTooLarge
	}

	item := models.TodoItem{Text: trimmed}
	l.items = append(l.items, item)
	l.persist(ctx)
	return item, nil
}

// Toggle переключает отметку о выполнении пункта.
func (l *List) Toggle(ctx context.Context, index int) (models.TodoItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return models.TodoItem{}, ErrOutOfRange
	}

	l.items[index].Completed = !l.items[index].Completed
	l.persist(ctx)
	return l.items[index], nil
}

// Remove удаляет пункт по индексу.
func (l *List) Remove(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return ErrOutOfRange
	}

	l.items = append(l.items[:index:index], l.items[index+1:]...)
	l.persist(ctx)
	return nil
}

// Replace заменяет список целиком (последний писатель выигрывает).
func (l *List) Replace(ctx context.Context, items []models.TodoItem) error {
	normalized, err := Validate(items)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = normalized
	l.persist(ctx)
	return nil
}

// Progress возвращает число выполненных пунктов и процент выполнения.
func (l *List) Progress() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ProgressOf(l.items)
}

// ProgressOf считает прогресс для произвольного списка.
func ProgressOf(items []models.TodoItem) Progress {
	progress := Progress{Total: len(items)}
	for _, item := range items {
		if item.Completed {
			progress.Completed++
		}
	}
	if progress.Total > 0 {
		progress.Percent = float64(progress.Completed) / float64(progress.Total) * 100
	}
	return progress
}

func (l *List) persist(ctx context.Context) {
	payload, err := Encode(l.items)
	if err != nil {
		l.logger.Error("failed to encode todos", slog.String("error", err.Error()))
		return
	}
	if err := l.storage.Put(ctx, l.key, payload); err != nil {
		l.logger.Error("failed to save todos", slog.String("error", err.Error()))
	}
}

// Encode сериализует список детерминированно: одинаковый список дает одинаковые байты.
func Encode(items []models.TodoItem) ([]byte, error) {
	if items == nil {
		items = []models.TodoItem{}
	}
	return json.Marshal(items)
}

// Decode разбирает сохраненный список и проверяет пункты.
func Decode(payload []byte) ([]models.TodoItem, error) {
	var items []models.TodoItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	if items == nil {
		return nil, errors.New("decode todos: payload is not a list")
	}
	return Validate(items)
}

// Validate обрезает тексты и отклоняет пустые пункты.
func Validate(items []models.TodoItem) ([]models.TodoItem, error) {
	if len(items) > MaxItems {
		return nil, ErrListTooLarge
	}

	out := make([]models.TodoItem, 0, len(items))
	for _, item := range items {
		text, err := normalizeText(item.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, models.TodoItem{Text: text, Completed: item.Completed})
	}
	return out, nil
}

func normalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	if len([]rune(trimmed)) > MaxTextLength {
		return "", ErrTextTooLong
	}
	return trimmed, nil
}

func clone(items []models.TodoItem) []models.TodoItem {
	out := make([]models.TodoItem, len(items))
	copy(out, items)
	return out
}
