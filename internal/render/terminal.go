// Package render shows generated quizzes in a terminal, one question at a time,
// with the answer hidden until the reader asks for it.
package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"quizlet/internal/dto"
)

const revealPrompt = "Press Enter to reveal the answer..."

// Terminal renders quizzes to out and reads reveal requests from in.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a new Terminal renderer.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// RenderQuiz prints every question and waits for Enter before showing its answer.
// Running out of input reveals the remaining answers without waiting.
func (t *Terminal) RenderQuiz(quiz *dto.QuizResponse) error {
	if quiz == nil || len(quiz.Questions) == 0 {
		_, err := fmt.Fprintln(t.out, "No questions were generated.")
		return err
	}

	for _, w := range quiz.Warnings {
		if _, err := fmt.Fprintf(t.out, "Note: %s\n", w); err != nil {
			return err
		}
	}

	for i, q := range quiz.Questions {
		if i > 0 || len(quiz.Warnings) > 0 {
			if _, err := fmt.Fprintln(t.out); err != nil {
				return err
			}
		}
		if err := t.renderQuestion(q); err != nil {
			return err
		}
	}
	return nil
}

func (t *Terminal) renderQuestion(q dto.QuestionResponse) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Q%d %s\n", q.ID, q.Question)
	for _, opt := range q.Options {
		fmt.Fprintf(&b, "  - %s\n", opt)
	}
	b.WriteString(revealPrompt)
	if _, err := io.WriteString(t.out, b.String()); err != nil {
		return err
	}

	if _, err := t.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read input: %w", err)
	}

	_, err := fmt.Fprintf(t.out, "\nAnswer: %s\n", q.CorrectAnswer)
	return err
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner writes a progress line until the returned stop function is called.
// When animate is false only the label is printed once.
func Spinner(ctx context.Context, out io.Writer, label string, animate bool, interval time.Duration) (stop func()) {
	if !animate {
		fmt.Fprintln(out, label)
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for frame := 0; ; frame++ {
			fmt.Fprintf(out, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], label)
			select {
			case <-ctx.Done():
				// clear the line
				fmt.Fprintf(out, "\r%s\r", strings.Repeat(" ", len(label)+2))
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
