package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
	"payscript/internal/primer"
	"payscript/pkg/payscript"
)

func printBanner() {
	fmt.Println("payscript REPL (Ctrl+D to exit)")
	fmt.Println()
	fmt.Println("Each line is appended to the session script and the whole")
	fmt.Println("script is re-evaluated. Commands:")
	fmt.Println("  :vars          show all variables")
	fmt.Println("  :requests      show market data requests")
	fmt.Println("  :save NAME     persist the session script")
	fmt.Println("  :load NAME     replace the session with a persisted stream")
	fmt.Println("  :list          list persisted streams")
	fmt.Println("  :reset         clear the session")
	fmt.Println("  :help          show the language primer")
	fmt.Println("  :quit          exit")
	fmt.Println()
}

// session holds the script accumulated across REPL lines. Every input line
// re-runs the whole script so earlier assignments stay visible.
type session struct {
	runtime *payscript.Runtime
	lines   []string
}

func (s *session) events() []payscript.CodedEvent {
	return []payscript.CodedEvent{{
		ReferenceDate: s.runtime.ValueDate(),
		Script:        strings.Join(s.lines, "\n"),
	}}
}

// eval appends a line to the session and evaluates the result. On error the
// line is dropped so the session stays runnable.
func (s *session) eval(line string) (string, error) {
	s.lines = append(s.lines, line)
	out, err := s.run()
	if err != nil {
		s.lines = s.lines[:len(s.lines)-1]
		return "", err
	}
	return out, nil
}

func (s *session) run() (string, error) {
	if len(s.lines) == 0 {
		return "", nil
	}
	events := s.events()
	names, err := s.runtime.VariableNames(events)
	if err != nil {
		return "", err
	}
	values, err := s.runtime.RunEvents(events)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for i, v := range values {
		fmt.Fprintf(&out, "%s: %s\n", names[i], v)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

func (s *session) command(input string) (string, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":vars":
		return s.run()

	case ":requests":
		if len(s.lines) == 0 {
			return "", nil
		}
		reqs, err := s.runtime.MarketRequests(s.events())
		if err != nil {
			return "", err
		}
		out := make([]string, len(reqs))
		for i, req := range reqs {
			out[i] = req.String()
		}
		return strings.Join(out, "\n"), nil

	case ":save":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: :save NAME")
		}
		if err := s.runtime.SaveStream(fields[1], s.events()); err != nil {
			return "", err
		}
		return fmt.Sprintf("saved %q", fields[1]), nil

	case ":load":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: :load NAME")
		}
		events, err := s.runtime.LoadStream(fields[1])
		if err != nil {
			return "", err
		}
		if events == nil {
			return "", fmt.Errorf("no event stream named %q", fields[1])
		}
		lines := []string{}
		for _, ev := range events {
			lines = append(lines, strings.Split(ev.Script, "\n")...)
		}
		s.lines = lines
		return s.run()

	case ":list":
		names, err := s.runtime.ListStreams()
		if err != nil {
			return "", err
		}
		return strings.Join(names, "\n"), nil

	case ":reset":
		s.lines = nil
		return "session cleared", nil

	case ":help":
		return strings.TrimRight(primer.Primer, "\n"), nil

	default:
		return "", fmt.Errorf("unknown command %s", fields[0])
	}
}

func runREPL(runtime *payscript.Runtime) {
	printBanner()

	s := &session{runtime: runtime}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		runBasicREPL(s)
		return
	}
	runRawREPL(s)
}

// runBasicREPL handles non-TTY input (piped input)
func runBasicREPL(s *session) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(">>> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		if quit := replLine(s, strings.TrimRight(line, "\r\n"), "\n"); quit {
			return
		}
	}
}

// runRawREPL handles TTY input with line editing and history
func runRawREPL(s *session) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		runBasicREPL(s)
		return
	}
	defer term.Restore(fd, oldState)

	var history []string
	for {
		fmt.Print(">>> ")
		line, eof := readLineRaw(fd, history)
		if eof {
			fmt.Print("\r\n")
			return
		}
		if strings.TrimSpace(line) != "" {
			history = append(history, line)
		}
		if quit := replLine(s, line, "\r\n"); quit {
			return
		}
	}
}

// replLine dispatches one REPL input line. Returns true when the REPL
// should exit.
func replLine(s *session, line, eol string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if input == ":quit" {
		return true
	}

	var out string
	var err error
	if strings.HasPrefix(input, ":") {
		out, err = s.command(input)
	} else {
		out, err = s.eval(line)
	}
	if err != nil {
		fmt.Printf("Error: %v%s", err, eol)
		return false
	}
	if out != "" {
		fmt.Print(strings.ReplaceAll(out, "\n", eol) + eol)
	}
	return false
}

// readLineRaw reads a line in raw mode with basic editing and history.
// Returns the line and whether EOF was encountered.
func readLineRaw(fd int, history []string) (string, bool) {
	var line []rune
	cursor := 0
	histPos := len(history)
	buf := make([]byte, 1)

	redrawFromCursor := func() {
		fmt.Print("\x1b[K")
		for i := cursor; i < len(line); i++ {
			fmt.Print(string(line[i]))
		}
		if cursor < len(line) {
			fmt.Printf("\x1b[%dD", len(line)-cursor)
		}
	}

	replaceLine := func(text string) {
		if cursor > 0 {
			fmt.Printf("\x1b[%dD", cursor)
		}
		fmt.Print("\x1b[K")
		line = []rune(text)
		cursor = len(line)
		fmt.Print(text)
	}

	insert := func(r rune) {
		newLine := make([]rune, 0, len(line)+1)
		newLine = append(newLine, line[:cursor]...)
		newLine = append(newLine, r)
		newLine = append(newLine, line[cursor:]...)
		line = newLine
		cursor++
		fmt.Print(string(r))
		if cursor < len(line) {
			redrawFromCursor()
		}
	}

	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return string(line), true
		}

		b := buf[0]

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Print("^C\r\n")
			return "", false

		case 0x0d, 0x0a: // Enter
			fmt.Print("\r\n")
			return string(line), false

		case 0x7f, 0x08: // Backspace
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Print("\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC - arrow key sequence
			nextBuf := make([]byte, 1)
			n, err := os.Stdin.Read(nextBuf)
			if err != nil || n == 0 || nextBuf[0] != '[' {
				continue
			}
			arrowBuf := make([]byte, 1)
			n, err = os.Stdin.Read(arrowBuf)
			if err != nil || n == 0 {
				continue
			}

			switch arrowBuf[0] {
			case 'A': // Up - previous history entry
				if histPos > 0 {
					histPos--
					replaceLine(history[histPos])
				}
			case 'B': // Down - next history entry
				if histPos < len(history)-1 {
					histPos++
					replaceLine(history[histPos])
				} else if histPos == len(history)-1 {
					histPos++
					replaceLine("")
				}
			case 'C': // Right
				if cursor < len(line) {
					cursor++
					fmt.Print("\x1b[C")
				}
			case 'D': // Left
				if cursor > 0 {
					cursor--
					fmt.Print("\x1b[D")
				}
			case '3': // Delete key: ESC [ 3 ~
				delBuf := make([]byte, 1)
				os.Stdin.Read(delBuf)
				if delBuf[0] == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A - beginning of line
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E - end of line
			if cursor < len(line) {
				fmt.Printf("\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K - kill to end of line
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Print("\x1b[K")
			}

		case 0x15: // Ctrl+U - kill to beginning of line
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			if b >= 0x20 && b < 0x7f {
				insert(rune(b))
			}
		}
	}
}
