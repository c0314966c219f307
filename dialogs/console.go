package dialogs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ConsoleFallback renders dialogs as text on out and reads answers from in.
type ConsoleFallback struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

func NewConsoleFallback(in io.Reader, out io.Writer, logger *slog.Logger) *ConsoleFallback {
	return &ConsoleFallback{in: bufio.NewReader(in), out: out, logger: logger}
}

func NewStdConsoleFallback(logger *slog.Logger) *ConsoleFallback {
	return NewConsoleFallback(os.Stdin, os.Stdout, logger)
}

func (c *ConsoleFallback) Alert(message, title, button string) error {
	c.warn("alert")
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, "%s\n%s\n\n%s\n", title, message, button); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	_, _, err := c.readLine()
	return err
}

// Confirm answers 1 for an empty line, "y", "yes", "ok" or the first button
// label, and 2 for anything else including end of input.
func (c *ConsoleFallback) Confirm(message, title string, buttons []string) (int, error) {
	c.warn("confirm")
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, "%s\n%s\n\n%s\n", title, message, strings.Join(buttons, " ")); err != nil {
		return 0, fmt.Errorf("write confirm: %w", err)
	}
	line, ok, err := c.readLine()
	if err != nil {
		return 0, err
	}
	if ok && affirmative(line, buttons) {
		return 1, nil
	}
	return 2, nil
}

// Prompt returns the entered text with button 1, or the default text for an
// empty line. No text at all means the prompt was cancelled: button 2.
func (c *ConsoleFallback) Prompt(message, title string, buttons []string, defaultText string) (PromptResult, error) {
	c.warn("prompt")
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, "%s\n%s\n\n%s\n", title, message, strings.Join(buttons, " ")); err != nil {
		return PromptResult{}, fmt.Errorf("write prompt: %w", err)
	}
	line, ok, err := c.readLine()
	if err != nil {
		return PromptResult{}, err
	}
	text := line
	if ok && text == "" {
		text = defaultText
	}
	if text == "" {
		return PromptResult{Text: text, ButtonIndex: 2}, nil
	}
	return PromptResult{Text: text, ButtonIndex: 1}, nil
}

func (c *ConsoleFallback) warn(kind string) {
	c.logger.Warn("Using console fallback for native dialogs. Supply a Fallback to override it.", "dialog", kind)
}

// readLine reports ok=false at end of input.
func (c *ConsoleFallback) readLine() (string, bool, error) {
	line, err := c.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func affirmative(answer string, buttons []string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	switch a {
	case "", "y", "yes", "ok":
		return true
	}
	return len(buttons) > 0 && a == strings.ToLower(buttons[0])
}
