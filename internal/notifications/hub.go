package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/todo"
)

const (
	EventTodosUpdated  = "todos_updated"
	EventDietPlanReady = "diet_plan_ready"
)

const subscriberBuffer = 10

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type TodosUpdated struct {
	Items    []models.TodoItem `json:"items"`
	Progress todo.Progress     `json:"progress"`
}

type DietPlanReady struct {
	PlanTitle   string  `json:"planTitle"`
	BMI         float64 `json:"bmi"`
	BMICategory string  `json:"bmiCategory"`
}

// TodosUpdatedEvent собирает событие об изменении списка дел.
func TodosUpdatedEvent(items []models.TodoItem) Event {
	return Event{
		Type: EventTodosUpdated,
		Data: TodosUpdated{Items: items, Progress: todo.ProgressOf(items)},
	}
}

// DietPlanReadyEvent собирает событие о готовом плане питания.
func DietPlanReadyEvent(recommendation models.DietRecommendation) Event {
	return Event{
		Type: EventDietPlanReady,
		Data: DietPlanReady{
			PlanTitle:   recommendation.PlanTitle,
			BMI:         recommendation.BMI,
			BMICategory: string(recommendation.BMICategory),
		},
	}
}

// Hub раздает события всем открытым SSE-подпискам пользователя (несколько вкладок, клиент CLI).
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
// Функцию отписки можно вызывать повторно.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам пользователя.
// Медленный подписчик с полным буфером пропускает событие.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число открытых подписок пользователя.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
