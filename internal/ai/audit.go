package ai

import "context"

const (
	RequestTypeDietPlan = "diet_plan"
	RequestTypeChat     = "chat"
)

// Exchange describes one call to the model for the operator audit log.
type Exchange struct {
	RequestType string
	Provider    string
	Model       string
	Prompt      string
	Request     []byte
	Response    []byte
	Raw         []byte
	Err         error
}

// Auditor сохраняет обмен с моделью. Ошибки аудита не влияют на ответ пользователю.
type Auditor interface {
	Record(ctx context.Context, exchange Exchange) error
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, Exchange) error { return nil }

// NopAuditor возвращает аудитор, который ничего не сохраняет.
func NopAuditor() Auditor {
	return nopAuditor{}
}
