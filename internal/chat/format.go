package chat

import (
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*.*?\*\*`)

// Segment is a run of chat text that is either plain or bold.
type Segment struct {
	Text string
	Bold bool
}

// Segments разбивает текст на обычные и жирные фрагменты по разметке **...**.
// Жирный фрагмент не переходит через перевод строки.
func Segments(text string) []Segment {
	if text == "" {
		return nil
	}

	var segments []Segment
	last := 0
	for _, loc := range boldPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]+2 : loc[1]-2], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

// Plain возвращает текст без разметки жирного шрифта.
func Plain(text string) string {
	var b strings.Builder
	for _, segment := range Segments(text) {
		b.WriteString(segment.Text)
	}
	return b.String()
}
