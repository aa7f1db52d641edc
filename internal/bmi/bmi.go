package bmi

import "math"

type Category string

const (
	CategoryUnderweight Category = "Underweight"
	CategoryNormal      Category = "Normal weight"
	CategoryOverweight  Category = "Overweight"
	CategoryObese       Category = "Obese"
)

const (
	underweightLimit = 18.5
	normalLimit      = 25.0
	overweightLimit  = 30.0
)

// Calculate возвращает BMI, округленный до одного знака, по весу в кг и росту в см.
// ok=false означает, что BMI не определен: это не то же самое, что BMI = 0.
func Calculate(weightKg, heightCm float64) (float64, bool) {
	if !isPositive(weightKg) || !isPositive(heightCm) {
		return 0, false
	}

	heightM := heightCm / 100
	value := weightKg / (heightM * heightM)
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}

	return math.Round(value*10) / 10, true
}

// Categorize сопоставляет BMI одной из четырех категорий. Граница относится к верхней категории.
func Categorize(bmi float64) Category {
	switch {
	case bmi < underweightLimit:
		return CategoryUnderweight
	case bmi < normalLimit:
		return CategoryNormal
	case bmi < overweightLimit:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}

var descriptions = map[Category]string{
	CategoryUnderweight: "A BMI below 18.5. Consider focusing on nutrient-dense foods to support healthy weight gain.",
	CategoryNormal:      "A BMI between 18.5 and 24.9. This is considered a healthy weight range for most adults.",
	CategoryOverweight:  "A BMI between 25 and 29.9. This may indicate a higher risk for certain health conditions.",
	CategoryObese:       "A BMI of 30 or greater. This often indicates a significantly higher risk for health issues.",
}

// Description возвращает пояснение к категории. Для неизвестной категории строка пустая.
func (c Category) Description() string {
	return descriptions[c]
}

// Valid сообщает, является ли значение одной из известных категорий.
func (c Category) Valid() bool {
	switch c {
	case CategoryUnderweight, CategoryNormal, CategoryOverweight, CategoryObese:
		return true
	default:
		return false
	}
}

func isPositive(value float64) bool {
	return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}
