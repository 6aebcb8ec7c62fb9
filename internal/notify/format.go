package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/gosuda/kanbanhub/internal/domain"
	"github.com/gosuda/kanbanhub/internal/messenger"
)

const (
	// LabelPlaceholder replaces a missing task label.
	LabelPlaceholder = "нет"
	// DefaultPriorityMarker is shown for tasks without a known priority.
	DefaultPriorityMarker = "⚪"

	// StatusMenuPrompt heads the interactive column picker.
	StatusMenuPrompt = "📋 *Выберите колонку для просмотра:*"

	refreshHint     = "🔄 Используйте /status для обновления"
	timestampLayout = "02.01.2006, 15:04:05"
)

// DefaultColumnNames maps internal stage keys to their display names.
func DefaultColumnNames() map[domain.ColumnStatus]string {
	return map[domain.ColumnStatus]string{
		"Cleaning stage":       "Этап клина",
		"Translator stage":     "Этап перевода",
		"Editing stage":        "Этап редактуры",
		"Beta editing":         "Бета-рид",
		"Type stage":           "Этап тайпа",
		"Cleaning is optional": "Клин (ПТ, Баст, айдол)",
	}
}

var priorityMarkers = map[domain.Priority]string{ //nolint:gochecknoglobals // fixed lookup table
	domain.PriorityLow:    "🔵",
	domain.PriorityMedium: "🟡",
	domain.PriorityHigh:   "🔴",
}

// PriorityMarker returns the marker for p, or DefaultPriorityMarker.
func PriorityMarker(p domain.Priority) string {
	if m, ok := priorityMarkers[p]; ok {
		return m
	}
	return DefaultPriorityMarker
}

var markdownEscaper = strings.NewReplacer( //nolint:gochecknoglobals // stateless replacer
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// escapeMarkdown escapes user text for Telegram's legacy Markdown mode.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Formatter renders board events and column reports as chat text.
// It holds no mutable state and is safe for concurrent use.
type Formatter struct {
	columns  map[domain.ColumnStatus]string
	location *time.Location
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithColumnNames replaces the stage display table.
func WithColumnNames(names map[domain.ColumnStatus]string) FormatterOption {
	return func(f *Formatter) {
		f.columns = names
	}
}

// WithLocation sets the zone timestamps are rendered in.
func WithLocation(loc *time.Location) FormatterOption {
	return func(f *Formatter) {
		if loc != nil {
			f.location = loc
		}
	}
}

// NewFormatter creates a Formatter using DefaultColumnNames and the local zone.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		columns:  DefaultColumnNames(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ColumnName returns the display name of status, or status itself when unmapped.
func (f *Formatter) ColumnName(status domain.ColumnStatus) string {
	if name, ok := f.columns[status]; ok {
		return name
	}
	return string(status)
}

// Event renders a board event as plain text.
func (f *Formatter) Event(ev domain.BoardEvent) (string, error) {
	switch ev.Kind {
	case domain.EventTaskMoved:
		return f.TaskMoved(ev), nil
	case domain.EventTaskCreated:
		return f.TaskCreated(ev), nil
	default:
		return "", fmt.Errorf("notify.Formatter.Event: %q: %w", ev.Kind, domain.ErrUnknownEvent)
	}
}

// TaskMoved renders a card move as plain text.
func (f *Formatter) TaskMoved(ev domain.BoardEvent) string {
	var b strings.Builder
	b.WriteString("🔄 Перемещение карточки\n\n")
	fmt.Fprintf(&b, "📋 %s\n", ev.Task.Title)
	fmt.Fprintf(&b, "🪦 Из: %s\n", f.ColumnName(ev.FromStatus))
	fmt.Fprintf(&b, "🪬 В: %s\n", f.ColumnName(ev.ToStatus))
	fmt.Fprintf(&b, "🏷️ Метка: %s", labelOrPlaceholder(ev.Task.Label))
	f.writeTimestamp(&b, ev.Timestamp)
	return b.String()
}

// TaskCreated renders a new card as plain text.
func (f *Formatter) TaskCreated(ev domain.BoardEvent) string {
	var b strings.Builder
	b.WriteString("➕ Новая карточка\n\n")
	fmt.Fprintf(&b, "📋 %s\n", ev.Task.Title)
	fmt.Fprintf(&b, "📁 Колонка: %s\n", f.ColumnName(ev.Status))
	fmt.Fprintf(&b, "🏷️ Метка: %s", labelOrPlaceholder(ev.Task.Label))
	f.writeTimestamp(&b, ev.Timestamp)
	return b.String()
}

// ColumnStatus renders a single column report in Markdown.
func (f *Formatter) ColumnStatus(col domain.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n", escapeMarkdown(col.Title))
	fmt.Fprintf(&b, "📊 Карточек: %d\n\n", col.TaskCount)

	if len(col.Tasks) == 0 {
		b.WriteString("📭 Карточек нет\n")
	} else {
		b.WriteString("*Список карточек:*\n")
		for i, task := range col.Tasks {
			fmt.Fprintf(&b, "%d. %s %s", i+1, PriorityMarker(task.Priority), escapeMarkdown(task.Title))
			if task.Label != "" {
				fmt.Fprintf(&b, " 🏷️%s", escapeMarkdown(task.Label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(refreshHint)
	return b.String()
}

// AllColumnsStatus renders a Markdown overview of every column's count.
func (f *Formatter) AllColumnsStatus(cols []domain.Column) string {
	var b strings.Builder
	b.WriteString("📊 *Статус всех колонок:*\n\n")
	for i, col := range cols {
		fmt.Fprintf(&b, "*%d. %s* - %d карточек\n", i+1, escapeMarkdown(col.Title), col.TaskCount)
	}
	b.WriteString("\n")
	b.WriteString(refreshHint)
	return b.String()
}

// StatusMenu returns the column picker prompt and one button per column.
// Columns without a status key are selected by title.
func (f *Formatter) StatusMenu(cols []domain.Column) (string, []messenger.Button) {
	buttons := lo.Map(cols, func(col domain.Column, _ int) messenger.Button {
		key := col.Status
		if key == "" {
			key = domain.ColumnStatus(col.Title)
		}
		return messenger.Button{
			Label: "📂 " + col.Title + " (" + strconv.Itoa(col.TaskCount) + ")",
			Data:  messenger.ColumnCallbackData(key),
		}
	})
	return StatusMenuPrompt, buttons
}

func (f *Formatter) writeTimestamp(b *strings.Builder, at time.Time) {
	if at.IsZero() {
		return
	}
	fmt.Fprintf(b, "\n⏰ %s", at.In(f.location).Format(timestampLayout))
}

func labelOrPlaceholder(label string) string {
	if label == "" {
		return LabelPlaceholder
	}
	return label
}
