package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Styles for terminal output.
var (
	// TitleStyle for main headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")). // Teal
			MarginBottom(1)

	// SubtitleStyle for section headers
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213")). // Pink
			MarginTop(1)

	// SuccessStyle for positive feedback
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	// ErrorStyle for errors
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	// WarningStyle for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	// InfoStyle for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // Blue

	// MutedStyle for secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // Gray

	// HighlightStyle for important values
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")) // Yellow

	// BoxStyle for summary boxes
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(1, 2)

	// TableHeaderStyle for table headers
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("213")).
				Underline(true)
)

// Icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconArrow   = "→"
)

// FormatSuccess formats a success message with icon
func FormatSuccess(message string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s %s", IconSuccess, message))
}

// FormatError formats an error message with icon
func FormatError(message string) string {
	return ErrorStyle.Render(fmt.Sprintf("%s %s", IconError, message))
}

// FormatWarning formats a warning message with icon
func FormatWarning(message string) string {
	return WarningStyle.Render(fmt.Sprintf("%s %s", IconWarning, message))
}

// FormatInfo formats an info message with icon
func FormatInfo(message string) string {
	return InfoStyle.Render(fmt.Sprintf("%s %s", IconInfo, message))
}

// FormatTitle formats a title
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// RenderBox renders content in a styled box
func RenderBox(content string) string {
	return BoxStyle.Render(content)
}
