package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// getSimpleText is an indirection used to facilitate testing.
var getSimpleText = GetSimpleText

// errNoInput is returned when a value is missing and stdin is not a
// terminal to ask for it.
var errNoInput = errors.New("missing argument")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// argOrPrompt returns the joined args, or asks for the value when there are
// none and stdin is interactive.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if v := strings.TrimSpace(strings.Join(args, " ")); v != "" {
		return v, nil
	}
	if !isTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("%w: %s", errNoInput, prompt)
	}
	return getSimpleText(a.reader, prompt, a.out)
}
