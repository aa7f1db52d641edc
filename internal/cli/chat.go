package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/chat"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const chatGreeting = "Hi! Ask me anything about nutrition and wellness. Type \"exit\" to quit."

// ChatStreamer реализуется client.Client.
type ChatStreamer interface {
	StreamChat(ctx context.Context, history []models.ChatMessage, message string) (ai.Stream, error)
}

func runChat(ctx context.Context, api ChatStreamer, streams IO) int {
	transcript := chat.NewTranscript()
	scanner := bufio.NewScanner(streams.In)
	scanner.Buffer(make([]byte, 0, 4096), chat.MaxMessageLength*4)

	fmt.Fprintln(streams.Out, titleStyle.Render("Smart Fitness Chat"))
	fmt.Fprintln(streams.Out, mutedStyle.Render(chatGreeting))

	for {
		fmt.Fprint(streams.Out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(streams.Out)
			break
		}

		message := strings.TrimSpace(scanner.Text())
		switch message {
		case "":
			continue
		case "exit", "quit":
			return exitOK
		}

		chatTurn(ctx, api, transcript, message, streams)
		if ctx.Err() != nil {
			return exitError
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(streams.Err, errorStyle.Render(err.Error()))
		return exitError
	}
	return exitOK
}

// chatTurn отправляет реплику и печатает ответ по мере поступления.
// В историю всегда попадает ровно один ход модели.
func chatTurn(ctx context.Context, api ChatStreamer, transcript *chat.Transcript, message string, streams IO) {
	transcript.AddUser(message)

	stream, err := api.StreamChat(ctx, transcript.History(), message)
	if err != nil {
		fmt.Fprintln(streams.Out, errorStyle.Render(transcript.Fail()))
		return
	}

	renderer := newLineRenderer(streams.Out)
	text, err := transcript.Collect(stream, renderer.Write)
	renderer.Flush()

	if err != nil || text == chat.Apology {
		fmt.Fprintln(streams.Out, errorStyle.Render(chat.Apology))
	}
}
