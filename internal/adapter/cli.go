package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/model/contract"
	"github.com/harunnryd/jarvis/internal/pathutil"
	"github.com/harunnryd/jarvis/internal/session"
	"github.com/harunnryd/jarvis/internal/tool"

	"charm.land/lipgloss/v2"
	"github.com/google/shlex"
)

const CLISessionID = "cli"

const cliHelp = `Commands:
  /image <path> [text]  attach a photo to the message
  /reset                clear the conversation
  /exit                 quit`

// CLIAdapter is the terminal REPL: one session, toasts printed inline.
type CLIAdapter struct {
	responder Responder
	in        *bufio.Reader
	out       io.Writer
	mu        sync.Mutex

	promptStyle lipgloss.Style
	replyStyle  lipgloss.Style
	toastStyle  lipgloss.Style
	errorStyle  lipgloss.Style
	infoStyle   lipgloss.Style
}

func NewCLIAdapter(responder Responder, in io.Reader, out io.Writer) *CLIAdapter {
	return &CLIAdapter{
		responder:   responder,
		in:          bufio.NewReader(in),
		out:         out,
		promptStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		replyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		toastStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		infoStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

func (a *CLIAdapter) Name() string {
	return "cli"
}

// Start runs the REPL until /exit, EOF or ctx cancellation.
func (a *CLIAdapter) Start(ctx context.Context) error {
	a.println(a.infoStyle.Render("Jarvis is listening. Type /help for commands, /exit to quit."))

	ctx = tool.WithNotifier(ctx, tool.NotifierFunc(func(_ context.Context, message string) {
		a.println(a.toastStyle.Render(message))
	}))

	for {
		if ctx.Err() != nil {
			return nil
		}
		a.print(a.promptStyle.Render("> "))

		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				a.println("")
				return nil
			}
			return err
		}

		if exit := a.handleLine(ctx, strings.TrimSpace(line)); exit {
			return nil
		}
	}
}

func (a *CLIAdapter) handleLine(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	var in session.Input
	if strings.HasPrefix(line, "/") {
		parts, err := shlex.Split(line)
		if err != nil {
			parts = strings.Fields(line)
		}

		switch parts[0] {
		case "/exit", "/quit":
			return true
		case "/help":
			a.println(a.infoStyle.Render(cliHelp))
			return false
		case "/reset":
			if err := a.responder.Reset(CLISessionID); err != nil {
				a.println(a.errorStyle.Render(jarvisErrors.UserMessage(err)))
				return false
			}
			a.println(a.infoStyle.Render("Conversation cleared."))
			return false
		case "/image":
			if len(parts) < 2 {
				a.println(a.errorStyle.Render("usage: /image <path> [text]"))
				return false
			}
			img, err := loadImage(parts[1])
			if err != nil {
				a.println(a.errorStyle.Render(jarvisErrors.UserMessage(err)))
				return false
			}
			in = session.Input{Text: strings.Join(parts[2:], " "), Image: img}
		default:
			in = session.Input{Text: line}
		}
	} else {
		in = session.Input{Text: line}
	}

	reply := a.responder.Respond(ctx, CLISessionID, in)
	switch {
	case reply.Err != nil:
		a.println(a.errorStyle.Render(reply.Text))
	case reply.Visible:
		a.println(a.replyStyle.Render(reply.Text))
	}
	return false
}

// Send prints a notice between prompts.
func (a *CLIAdapter) Send(ctx context.Context, sessionID string, content string) error {
	a.println(a.toastStyle.Render(content))
	return nil
}

func (a *CLIAdapter) Stop(ctx context.Context) error {
	return nil
}

func (a *CLIAdapter) Health(ctx context.Context) error {
	return nil
}

func (a *CLIAdapter) print(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprint(a.out, s)
}

func (a *CLIAdapter) println(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, s)
}

func loadImage(path string) (*contract.Image, error) {
	expanded, err := pathutil.Expand(path)
	if err != nil {
		return nil, jarvisErrors.InvalidInput("bad image path: " + path)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jarvisErrors.NotFound("image " + path)
		}
		return nil, jarvisErrors.Wrap(err, "read image")
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, jarvisErrors.InvalidInput(path + " is not an image")
	}
	return &contract.Image{MIMEType: mime, Data: data}, nil
}
