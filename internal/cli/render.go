package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/chat"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/todo"
)

// renderMarkdown рисует строку, выделяя **жирные** фрагменты.
func renderMarkdown(text string) string {
	var b strings.Builder
	for _, segment := range chat.Segments(text) {
		if segment.Bold {
			b.WriteString(boldStyle.Render(segment.Text))
			continue
		}
		b.WriteString(segment.Text)
	}
	return b.String()
}

// lineRenderer печатает поток чата построчно: жирный текст не пересекает границу строки,
// поэтому каждую завершенную строку можно отрисовать сразу.
type lineRenderer struct {
	out     io.Writer
	pending strings.Builder
}

func newLineRenderer(out io.Writer) *lineRenderer {
	return &lineRenderer{out: out}
}

func (r *lineRenderer) Write(chunk string) {
	r.pending.WriteString(chunk)
	text := r.pending.String()

	last := strings.LastIndexByte(text, '\n')
	if last < 0 {
		return
	}

	for _, line := range strings.Split(text[:last], "\n") {
		fmt.Fprintln(r.out, renderMarkdown(line))
	}
	r.pending.Reset()
	r.pending.WriteString(text[last+1:])
}

func (r *lineRenderer) Flush() {
	if r.pending.Len() == 0 {
		return
	}
	fmt.Fprintln(r.out, renderMarkdown(r.pending.String()))
	r.pending.Reset()
}

func renderPlan(out io.Writer, recommendation models.DietRecommendation) {
	var body strings.Builder
	fmt.Fprintf(&body, "BMI %.1f · %s\n", recommendation.BMI, recommendation.BMICategory)
	if description := recommendation.BMICategory.Description(); description != "" {
		body.WriteString(mutedStyle.Render(description))
		body.WriteString("\n")
	}
	for i, detail := range recommendation.Details {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString("• ")
		body.WriteString(renderMarkdown(detail))
	}

	fmt.Fprintln(out, titleStyle.Render(recommendation.PlanTitle))
	fmt.Fprintln(out, panelStyle.Render(body.String()))
}

func renderTodos(out io.Writer, items []models.TodoItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("Nothing to do yet."))
	}
	for i, item := range items {
		mark := "[ ]"
		text := item.Text
		if item.Completed {
			mark = "[x]"
			text = doneStyle.Render(text)
		}
		fmt.Fprintf(out, "%2d. %s %s\n", i+1, mark, text)
	}

	progress := todo.ProgressOf(items)
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d of %d done (%.0f%%)", progress.Completed, progress.Total, progress.Percent)))
}
