package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/ppiankov/actiongate/internal/model"
)

// TerminalRequester prompts on a terminal: y allows once, n blocks once,
// a allows every identical action, d shows details, q aborts the task.
type TerminalRequester struct {
	out         io.Writer
	interactive bool

	mu    sync.Mutex
	once  sync.Once
	in    *bufio.Reader
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewTerminalRequester reads answers from in and writes prompts to out.
// When in is an *os.File that is not a terminal, every prompt resolves to
// non_interactive without reading.
func NewTerminalRequester(in io.Reader, out io.Writer) *TerminalRequester {
	return &TerminalRequester{
		out:         out,
		interactive: isInteractive(in),
		in:          bufio.NewReader(in),
		lines:       make(chan lineResult),
	}
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func isInteractive(r io.Reader) bool {
	if f, ok := r.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return true
}

// Request prints the prompt and loops until a valid choice, end of input or
// cancellation. Only one prompt is shown at a time.
func (t *TerminalRequester) Request(ctx context.Context, p Prompt) (model.UserDecision, error) {
	if !t.interactive {
		return model.DecisionNonInteractive, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.once.Do(func() { go t.readLines() })

	fmt.Fprintln(t.out, FormatPrompt(p))
	for {
		fmt.Fprintln(t.out, "Choices:")
		fmt.Fprintln(t.out, "  y - allow this action")
		fmt.Fprintln(t.out, "  n - block this action")
		fmt.Fprintln(t.out, "  a - allow all identical actions this session")
		fmt.Fprintln(t.out, "  d - show details")
		fmt.Fprintln(t.out, "  q - abort the task")
		fmt.Fprint(t.out, "\nYour choice (y/n/a/d/q): ")

		var line lineResult
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out, "\nInterrupted")
			return model.DecisionInterrupted, ctx.Err()
		case line = <-t.lines:
		}
		if line.err != nil {
			fmt.Fprintln(t.out, "\nInterrupted")
			if line.err == io.EOF {
				return model.DecisionInterrupted, nil
			}
			return model.DecisionInputError, line.err
		}

		answer := strings.ToLower(strings.TrimSpace(line.text))
		if answer == "d" || answer == "details" {
			fmt.Fprintln(t.out, FormatDetails(p.Details))
			continue
		}
		d, err := ParseAnswer(answer)
		if err != nil {
			fmt.Fprintln(t.out, "Invalid choice, try again.")
			continue
		}
		fmt.Fprintln(t.out, answerText[d])
		return d, nil
	}
}

// readLines feeds t.lines until the reader fails. After a failure every
// receive gets the same error.
func (t *TerminalRequester) readLines() {
	for {
		text, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			for {
				t.lines <- lineResult{err: err}
			}
		}
		t.lines <- lineResult{text: text}
	}
}
