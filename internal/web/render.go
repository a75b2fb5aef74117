// Package web holds the HTML templates and page helpers for the task screens.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// DeadlineDisplayLayout renders 2021-02-28 10:30 as "2021/2/28 10:30"
	DeadlineDisplayLayout = "2006/1/2 15:04"
	deadlineInputLayout   = "2006-01-02T15:04"
)

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.New("pages").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.tmpl")
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"deadline":      FormatDeadline,
		"deadlineInput": formatDeadlineInput,
		"statuses":      models.TaskStatuses,
		"join":          strings.Join,
	}
}

// FormatDeadline renders a deadline for display; nil renders empty
func FormatDeadline(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DeadlineDisplayLayout)
}

func formatDeadlineInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(deadlineInputLayout)
}
