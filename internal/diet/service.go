package diet

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/bmi"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

// UserMessage is the only failure text shown to the person asking for a plan.
const UserMessage = "Could not fetch diet recommendation. Please try again later."

type Service struct {
	client ai.Client
	audit  ai.Auditor
	logger *slog.Logger
}

type Option func(*Service)

// WithAuditor подключает журнал обращений к модели.
func WithAuditor(auditor ai.Auditor) Option {
	return func(s *Service) {
		if auditor != nil {
			s.audit = auditor
		}
	}
}

// WithLogger задает логгер для диагностики сбоев.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создает сервис рекомендаций поверх клиента модели.
func NewService(client ai.Client, opts ...Option) *Service {
	service := &Service{
		client: client,
		audit:  ai.NopAuditor(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Recommend запрашивает план у модели и собирает рекомендацию.
// Категория BMI вычисляется локально по уже рассчитанному BMI профиля.
func (s *Service) Recommend(ctx context.Context, profile models.UserProfile) (models.DietRecommendation, error) {
	const op = "diet.recommend"

	prompt := BuildPrompt(profile)
	exchange := ai.Exchange{
		RequestType: ai.RequestTypeDietPlan,
		Provider:    s.client.Provider(),
		Model:       s.client.Model(),
		Prompt:      prompt,
	}
	exchange.Request, _ = json.Marshal(profile)

	generation, err := s.client.Generate(ctx, ai.GenerateRequest{
		System: SystemInstruction,
		Prompt: prompt,
		Schema: PlanSchema(),
	})
	exchange.Raw = generation.Raw
	if err != nil {
		return models.DietRecommendation{}, s.fail(ctx, op, exchange, err)
	}

	plan, err := ParsePlan(generation.Text)
	if err != nil {
		return models.DietRecommendation{}, s.fail(ctx, op, exchange, err)
	}

	recommendation := models.DietRecommendation{
		PlanTitle:   plan.PlanTitle,
		Details:     plan.Details,
		BMI:         profile.BMI,
		BMICategory: bmi.Categorize(profile.BMI),
	}

	exchange.Response, _ = json.Marshal(recommendation)
	s.record(ctx, exchange)

	s.logger.Info("diet plan generated",
		slog.String("provider", exchange.Provider),
		slog.String("bmi_category", string(recommendation.BMICategory)),
		slog.Int("details", len(recommendation.Details)),
	)

	return recommendation, nil
}

// fail логирует причину целиком и возвращает ошибку с сообщением для пользователя.
func (s *Service) fail(ctx context.Context, op string, exchange ai.Exchange, cause error) error {
	exchange.Err = cause
	s.record(ctx, exchange)

	kind := apperr.KindOf(cause)
	if kind == apperr.KindUnknown {
		kind = apperr.KindUpstream
	}

	s.logger.Error("diet plan failed",
		slog.String("kind", kind.String()),
		slog.String("provider", exchange.Provider),
		slog.String("model", exchange.Model),
		slog.String("error", cause.Error()),
	)

	return &apperr.Error{Kind: kind, Op: op, Message: UserMessage, Err: cause}
}

func (s *Service) record(ctx context.Context, exchange ai.Exchange) {
	if err := s.audit.Record(ctx, exchange); err != nil {
		s.logger.Warn("ai audit failed", slog.String("error", err.Error()))
	}
}
