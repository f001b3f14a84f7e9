package utils

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType defines the type of message box to render.
type MessageType int

const (
	InfoMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
)

var boxStyles = map[MessageType]struct {
	colour lipgloss.Color
	prefix string
}{
	InfoMessage:    {lipgloss.Color("86"), "ℹ"},
	SuccessMessage: {lipgloss.Color("42"), "✓"},
	WarningMessage: {lipgloss.Color("178"), "⚠"},
	ErrorMessage:   {lipgloss.Color("196"), "✗"},
}

// Box is a builder for bordered message boxes
type Box struct {
	messageType MessageType
	title       string
	content     []string
	width       int
}

// NewBox creates a box sized to the terminal
func NewBox(messageType MessageType, title string) *Box {
	return &Box{
		messageType: messageType,
		title:       title,
		width:       TerminalWidth() - 8,
	}
}

// WithWidth overrides the maximum width of the box
func (b *Box) WithWidth(width int) *Box {
	b.width = width
	return b
}

func (b *Box) AddLine(text string) *Box {
	b.content = append(b.content, text)
	return b
}

func (b *Box) AddBullet(text string) *Box {
	b.content = append(b.content, "• "+text)
	return b
}

// Render returns the box with its title prefixed by the type's symbol
func (b *Box) Render() string {
	style, ok := boxStyles[b.messageType]
	if !ok {
		style = boxStyles[InfoMessage]
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(style.colour).Render(style.prefix + " " + b.title)
	body := strings.Join(append([]string{title}, b.content...), "\n")

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.colour).
		Padding(0, 1)
	if b.width > 0 && lipgloss.Width(body)+4 > b.width {
		frame = frame.Width(b.width - 2)
	}

	return frame.Render(body)
}

// Success renders a success box with one line per entry
func Success(title string, lines ...string) string {
	return newBoxWithLines(SuccessMessage, title, lines).Render()
}

func newBoxWithLines(messageType MessageType, title string, lines []string) *Box {
	box := NewBox(messageType, title)
	for _, line := range lines {
		box.AddLine(line)
	}
	return box
}

// TerminalWidth returns the width of stdout or 80 when it is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
