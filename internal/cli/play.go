package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/config"
	"countdown-quiz/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errFeedUnavailable = errors.New("there was an error fetching questions")

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// Logs go to stderr so they do not interleave with the quiz screens.
			logger := installLogger(cfg, os.Stderr)

			source, cleanup, err := newQuestionSource(cmd.Context(), cfg, logger)
			defer cleanup()
			if err != nil {
				return err
			}
			session := app.NewSession(sessionOptions(cfg, logger))
			return Play(cmd.Context(), session, source, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// Play drives session from line commands read from in and renders every screen to out:
// s starts, 1-4 answers, n moves on (or finishes on the last question), r restarts, q quits.
func Play(ctx context.Context, session *app.Session, source app.QuestionSource, in io.Reader, out io.Writer) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-session.Done()
	}()
	go func() {
		_ = session.Run(runCtx)
	}()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	screen := &console{out: out}
	screen.render(session.Snapshot())
	if err := session.Load(runCtx, source); err != nil {
		return err
	}

	// Wait for the loader before accepting commands.
	for state := range updates {
		screen.render(state)
		if state.Status != domain.StatusLoading {
			break
		}
	}
	if session.Snapshot().Status == domain.StatusError {
		return errFeedUnavailable
	}

	// Timer expiry changes the screen without any input.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range updates {
			screen.render(session.Snapshot())
		}
	}()
	defer func() {
		unsubscribe()
		wg.Wait()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-runCtx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}
		if line == "" {
			continue
		}
		if line == "q" {
			return nil
		}

		action, err := parseCommand(line, session.Snapshot())
		if err == nil {
			err = session.Dispatch(runCtx, action)
		}
		if err != nil {
			screen.printf("! %v\n", err)
			continue
		}
		screen.render(session.Snapshot())
	}
}

func parseCommand(line string, state domain.State) (app.Action, error) {
	switch line {
	case "s":
		return app.Start{}, nil
	case "r":
		return app.Restart{}, nil
	case "n":
		if state.Index == state.NumQuestions()-1 {
			return app.Finish{}, nil
		}
		return app.NextQuestion{}, nil
	}
	if n, err := strconv.Atoi(line); err == nil {
		return app.NewAnswer{Selected: n - 1}, nil
	}
	return nil, errors.Errorf("unknown command %q (s, 1-%d, n, r, q)", line, domain.OptionsPerQuestion)
}

// console prints a screen once per distinct view, whichever goroutine asks first.
type console struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) render(state domain.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := screenKey(state)
	if key == c.last {
		return
	}
	c.last = key

	switch state.Status {
	case domain.StatusLoading:
		fmt.Fprintln(c.out, "Loading questions...")
	case domain.StatusError:
		fmt.Fprintln(c.out, "There was an error fetching questions.")
	case domain.StatusReady:
		fmt.Fprintf(c.out, "\nWelcome to the quiz!\n%d questions to test your mastery. Type s to start.\n", state.NumQuestions())
	case domain.StatusActive:
		renderQuestion(c.out, state)
	case domain.StatusFinished:
		if state.SecondsRemaining != nil && *state.SecondsRemaining == 0 {
			fmt.Fprintln(c.out, "\nTime's up!")
		}
		fmt.Fprintf(c.out, "\nYou scored %d out of %d (%d%%)\n(Highscore: %d)\nType r to restart or q to quit.\n",
			state.Points, state.MaxPossiblePoints(), state.Percentage(), state.HighScore)
	}
}

func renderQuestion(out io.Writer, state domain.State) {
	question, ok := state.CurrentQuestion()
	if !ok {
		return
	}
	fmt.Fprintf(out, "\nQuestion %d/%d   %d/%d points   %s left\n",
		state.Index+1, state.NumQuestions(), state.Points, state.MaxPossiblePoints(), formatSeconds(state.SecondsRemaining))
	fmt.Fprintf(out, "%s\n", question.Text)
	for i, option := range question.Options {
		marker := " "
		if state.Answer != nil {
			switch {
			case i == question.CorrectOption:
				marker = "+"
			case i == *state.Answer:
				marker = "-"
			}
		}
		fmt.Fprintf(out, " %s %d. %s\n", marker, i+1, option)
	}
	if state.Answer != nil {
		if state.Index == state.NumQuestions()-1 {
			fmt.Fprintln(out, "Type n to finish.")
		} else {
			fmt.Fprintln(out, "Type n for the next question.")
		}
	}
}

func screenKey(state domain.State) string {
	return fmt.Sprintf("%s/%d/%t", state.Status, state.Index, state.Answer != nil)
}

func formatSeconds(seconds *int) string {
	if seconds == nil {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", *seconds/60, *seconds%60)
}
