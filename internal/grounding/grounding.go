package grounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"programs-assistant/internal/config"
	"programs-assistant/internal/storage"
	"strings"
)

var banner = strings.Repeat("=", 20)

func placeholder(path string) string {
	return fmt.Sprintf("[Файл %s не найден. Запустите scraper.]", path)
}

func readText(ctx context.Context, store storage.Provider, path string) string {
	data, err := store.GetObject(ctx, filepath.ToSlash(filepath.Clean(path)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Warn("grounding file not found", "path", path)
		} else {
			slog.Error("error reading grounding file", "path", path, "error", err)
		}
		return placeholder(path)
	}
	return string(data)
}

// Build concatenates the instruction with every program's page text and
// curriculum text. Missing files are replaced with a placeholder. Callers
// build it once at startup and keep the result for the process lifetime.
func Build(ctx context.Context, store storage.Provider, instruction string, programs []config.Program) string {
	parts := []string{instruction}

	for _, program := range programs {
		parts = append(parts, fmt.Sprintf("\n\n%s\nИНФОРМАЦИЯ О ПРОГРАММЕ: %s\n%s\n", banner, program.Title, banner))
		parts = append(parts, readText(ctx, store, program.PageText))

		parts = append(parts, fmt.Sprintf("\n\n--- Учебный план программы: %s ---\n", program.Title))
		parts = append(parts, readText(ctx, store, program.PlanText))
	}

	return strings.Join(parts, "\n")
}
