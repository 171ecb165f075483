package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityHighColor   = lipgloss.Color("#FF6B6B") // Red
	PriorityMediumColor = lipgloss.Color("#FFE66D") // Yellow
	PriorityLowColor    = lipgloss.Color("#4ECDC4") // Blue

	// Notice colors
	NoticeInfo  = lipgloss.Color("#95E1A3") // Green
	NoticeWarn  = lipgloss.Color("#FFB347") // Orange
	NoticeError = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Pending   = lipgloss.Color("#FFE66D")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	ColumnFocusedStyle = ColumnStyle.
				BorderForeground(Primary)

	ColumnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary)

	CardStyle = lipgloss.NewStyle().
			Padding(0, 1)

	CardSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	CardDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	PendingStyle = lipgloss.NewStyle().Foreground(Pending)
	OverdueStyle = lipgloss.NewStyle().Foreground(NoticeError)

	PriorityHighStyle   = lipgloss.NewStyle().Foreground(PriorityHighColor).Bold(true)
	PriorityMediumStyle = lipgloss.NewStyle().Foreground(PriorityMediumColor)
	PriorityLowStyle    = lipgloss.NewStyle().Foreground(PriorityLowColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	LabelStyle        = lipgloss.NewStyle().Foreground(TextMuted).Width(10)
	LabelFocusedStyle = lipgloss.NewStyle().Foreground(Primary).Bold(true).Width(10)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// FormatPriority returns a colored priority label; NONE renders empty
func FormatPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return PriorityHighStyle.Render("HIGH")
	case model.PriorityMedium:
		return PriorityMediumStyle.Render("MED")
	case model.PriorityLow:
		return PriorityLowStyle.Render("LOW")
	default:
		return ""
	}
}

// NoticeStyle returns the status bar style for a notice level
func NoticeStyle(level board.Level) lipgloss.Style {
	switch level {
	case board.LevelError:
		return lipgloss.NewStyle().Foreground(NoticeError).Bold(true)
	case board.LevelWarn:
		return lipgloss.NewStyle().Foreground(NoticeWarn)
	default:
		return lipgloss.NewStyle().Foreground(NoticeInfo)
	}
}
