package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/todo"
)

// todoStore is the local list storage; Delete lets "reset" fall back to the seed list.
type todoStore interface {
	todo.Storage
	Delete(ctx context.Context, key string) error
}

func runTodo(ctx context.Context, storage todoStore, args []string, streams IO, logger *slog.Logger) int {
	command := "list"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	if command == "reset" {
		if err := storage.Delete(ctx, todo.StorageKey); err != nil {
			fmt.Fprintln(streams.Err, errorStyle.Render(err.Error()))
			return exitError
		}
		command = "list"
	}
	list, err := todo.Load(ctx, storage, logger)
	if err != nil {
		fmt.Fprintln(streams.Err, errorStyle.Render(err.Error()))
		return exitError
	}

	switch command {
	case "list":
	case "add":
		_, err = list.Add(ctx, strings.Join(args, " "))
	case "toggle":
		var index int
		if index, err = parseIndex(args); err == nil {
			_, err = list.Toggle(ctx, index)
		}
	case "remove":
		var index int
		if index, err = parseIndex(args); err == nil {
			err = list.Remove(ctx, index)
		}
	default:
		fmt.Fprintf(streams.Err, "unknown todo command %q\n", command)
		return exitUsage
	}

	if err != nil {
		fmt.Fprintln(streams.Err, errorStyle.Render(todoMessage(err)))
		return exitUsage
	}

	renderTodos(streams.Out, list.Items())
	return exitOK
}

// parseIndex переводит номер пункта из списка (с единицы) в индекс.
func parseIndex(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one item number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid item number %q", args[0])
	}
	return n - 1, nil
}

func todoMessage(err error) string {
	switch {
	case errors.Is(err, todo.ErrOutOfRange):
		return "No such item."
	case errors.Is(err, todo.ErrEmptyText):
		return "Enter a task."
	case errors.Is(err, todo.ErrTextTooLong):
		return fmt.Sprintf("Keep tasks under %d characters.", todo.MaxTextLength)
	case errors.Is(err, todo.ErrListTooLarge):
		return "The list is full."
	default:
		return err.Error()
	}
}
