package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/client"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

// errQuit ends Run without error.
var errQuit = errors.New("quit")

// App runs the login and dashboard screens on a terminal for one user.
type App struct {
	ctrl       *view.Controller
	prompt     *Prompter
	render     *Renderer
	captchaDir string
	log        zerolog.Logger

	state view.State

	// mu guards captchaPath; Cleanup may run from a signal handler.
	mu          sync.Mutex
	captchaPath string
}

// NewApp creates an App. CAPTCHA images are written under captchaDir; an
// empty captchaDir means the OS temp directory.
func NewApp(ctrl *view.Controller, prompt *Prompter, render *Renderer, captchaDir string, log zerolog.Logger) *App {
	return &App{
		ctrl:       ctrl,
		prompt:     prompt,
		render:     render,
		captchaDir: captchaDir,
		log:        log.With().Str("component", "tui").Logger(),
		state:      view.Initial(),
	}
}

// State returns the current view state.
func (a *App) State() view.State {
	return a.state
}

// Run loops over the screens until the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Cleanup()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if a.state.LoggedIn() {
			err = a.dashboardStep()
		} else {
			err = a.loginStep(ctx)
		}

		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}

// Cleanup removes the CAPTCHA image left on disk, if any.
func (a *App) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.captchaPath == "" {
		return
	}
	if err := os.Remove(a.captchaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.log.Warn().Err(err).Str("path", a.captchaPath).Msg("failed to remove captcha image")
	}
	a.captchaPath = ""
}

func (a *App) loginStep(ctx context.Context) error {
	if !a.state.HasCaptcha() {
		roll, err := a.prompt.Ask("Roll No")
		if err != nil {
			return err
		}
		return a.fetchCaptcha(ctx, roll)
	}

	password, err := a.prompt.AskSecret("Password")
	if err != nil {
		return err
	}
	text, err := a.prompt.Ask("CAPTCHA text (blank for a new one)")
	if err != nil {
		return err
	}
	if text == "" {
		return a.fetchCaptcha(ctx, a.state.Identifier)
	}
	year, err := a.prompt.AskIndex("Year index", 0)
	if err != nil {
		return err
	}
	semester, err := a.prompt.AskIndex("Semester index", 0)
	if err != nil {
		return err
	}

	a.render.Info("Loading...")
	next, err := a.ctrl.Login(ctx, a.state, view.Credentials{
		Password: password,
		Captcha:  text,
		Year:     year,
		Semester: semester,
	}, nil)
	a.state = next
	if err := a.report(err); err != nil {
		return err
	}
	if a.state.LoggedIn() {
		a.Cleanup()
		return nil
	}
	if !a.state.HasCaptcha() && a.state.Identifier != "" {
		// The backend session ended with the attempt.
		a.Cleanup()
		return a.fetchCaptcha(ctx, a.state.Identifier)
	}
	return nil
}

func (a *App) fetchCaptcha(ctx context.Context, roll string) error {
	a.render.Info("Loading...")
	next, err := a.ctrl.FetchCaptcha(ctx, a.state, roll, nil)
	a.state = next
	if err := a.report(err); err != nil || !a.state.HasCaptcha() {
		return err
	}

	path, err := a.saveCaptcha()
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to save captcha image")
		a.render.Error("Could not save the CAPTCHA image: " + err.Error())
		return nil
	}
	a.render.Info(fmt.Sprintf("CAPTCHA saved to %s (open it and type the text below)", path))
	return nil
}

// report prints a Failure inline and swallows it. Anything else is returned.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	var failure *view.Failure
	if errors.As(err, &failure) {
		a.render.Error(failure.Message)
		return nil
	}
	return err
}

func (a *App) saveCaptcha() (string, error) {
	mime, data, err := client.DecodeCaptchaImage(a.state.CaptchaImage)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(a.captchaDir, "captcha-*"+client.ImageExtension(mime))
	if err != nil {
		return "", fmt.Errorf("create captcha file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write captcha file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close captcha file: %w", err)
	}

	a.Cleanup()
	a.mu.Lock()
	a.captchaPath = f.Name()
	a.mu.Unlock()
	return f.Name(), nil
}

func (a *App) dashboardStep() error {
	dash, err := a.ctrl.Dashboard(a.state)
	if err != nil {
		return err
	}
	a.render.Dashboard(a.state.Identifier, dash)

	for {
		cmd, err := a.prompt.Ask("[r] refresh  [l] logout  [q] quit")
		if err != nil {
			return err
		}
		switch strings.ToLower(cmd) {
		case "r":
			return nil
		case "l":
			a.state = a.ctrl.Logout(a.state)
			a.render.Info("Logged out.")
			return nil
		case "q":
			return errQuit
		default:
			a.render.Error(fmt.Sprintf("Unknown command %q", cmd))
		}
	}
}
