package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TerminalChannel prints notifications to stdout for interactive runs.
type TerminalChannel struct {
	enabled bool
}

// NewTerminalChannel creates a terminal channel.
func NewTerminalChannel(enabled bool) *TerminalChannel {
	return &TerminalChannel{enabled: enabled}
}

// Name returns the channel name.
func (t *TerminalChannel) Name() string {
	return "terminal"
}

// IsEnabled reports whether terminal output is on.
func (t *TerminalChannel) IsEnabled() bool {
	return t.enabled
}

// Send prints the notification.
func (t *TerminalChannel) Send(_ context.Context, n Notification) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Type)), n.Title))
	if n.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(n.Message)
	}
	for _, f := range n.Fields {
		sb.WriteString(fmt.Sprintf(" | %s: %s", f.Name, f.Value))
	}
	fmt.Fprintln(os.Stdout, sb.String())
	return nil
}
