package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SecretReader reads one line without echoing it.
type SecretReader func() (string, error)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret SecretReader
}

// NewPrompter creates a Prompter. A nil secret reads the secret from in
// like any other answer.
func NewPrompter(in io.Reader, out io.Writer, secret SecretReader) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if secret == nil {
		secret = p.line
	}
	p.secret = secret
	return p
}

// Ask prints label and returns the trimmed answer. io.EOF is returned only
// when the input ends before any answer was typed.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.line()
}

// AskSecret is Ask without echo.
func (p *Prompter) AskSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.secret()
	fmt.Fprintln(p.out)
	return s, err
}

// AskIndex asks for a non-negative index. An empty answer picks def.
func (p *Prompter) AskIndex(label string, def int) (int, error) {
	for {
		raw, err := p.Ask(fmt.Sprintf("%s [%d]", label, def))
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return def, nil
		}
		n, err := strconv.Atoi(raw)
		if err == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(p.out, "Please enter a number (0 or more)")
	}
}

func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
