package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/bmi"
)

type Goal string

type ChatRole string

const (
	GoalLoseWeight     Goal = "Lose Weight"
	GoalMaintainWeight Goal = "Maintain Weight"
	GoalGainWeight     Goal = "Gain Weight"

	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// Goals возвращает цели в порядке отображения в форме.
func Goals() []Goal {
	return []Goal{GoalLoseWeight, GoalMaintainWeight, GoalGainWeight}
}

// Valid сообщает, является ли цель одной из поддерживаемых.
func (g Goal) Valid() bool {
	switch g {
	case GoalLoseWeight, GoalMaintainWeight, GoalGainWeight:
		return true
	default:
		return false
	}
}

// UserProfile is built on the client from form input and never changes after submission.
type UserProfile struct {
	Age    int     `json:"age"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	Goal   Goal    `json:"goal"`
	BMI    float64 `json:"bmi"`
}

type DietRecommendation struct {
	PlanTitle   string       `json:"planTitle"`
	Details     []string     `json:"details"`
	BMI         float64      `json:"bmi"`
	BMICategory bmi.Category `json:"bmiCategory"`
}

type ChatPart struct {
	Text string `json:"text"`
}

type ChatMessage struct {
	Role  ChatRole   `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// NewChatMessage создает сообщение из одного текстового фрагмента.
func NewChatMessage(role ChatRole, text string) ChatMessage {
	return ChatMessage{Role: role, Parts: []ChatPart{{Text: text}}}
}

// Text склеивает фрагменты сообщения в порядке следования.
func (m ChatMessage) Text() string {
	var b strings.Builder
	for _, part := range m.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
