package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Stdout implements Gateway by writing messages to standard output.
// Intended for development and debugging; messages are never delivered.
type Stdout struct {
	writer io.Writer
}

// NewStdout creates a Stdout gateway printing to os.Stdout.
func NewStdout() *Stdout {
	return &Stdout{writer: os.Stdout}
}

func (s *Stdout) Name() string { return "stdout" }

// Send prints the message details to stdout and returns a successful result.
func (s *Stdout) Send(_ context.Context, msg *Message) (*Result, error) {
	var b strings.Builder
	b.WriteString("--- stdout gateway: message ---\n")
	fmt.Fprintf(&b, "Attempt: %s\n", msg.AttemptID)
	fmt.Fprintf(&b, "From:    %s\n", msg.From)
	fmt.Fprintf(&b, "To:      %s <%s>\n", msg.ToName, msg.To)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "Body:    (%d bytes)\n", len(msg.HTMLBody))
	b.WriteString("--- end ---\n")

	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}

	return &Result{
		ProviderMessageID: "stdout-" + msg.AttemptID,
		Timestamp:         time.Now(),
	}, nil
}
