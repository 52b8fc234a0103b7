package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner renders per-table progress on a single terminal line while the
// sync engine is busy with database round trips.
type Spinner struct {
	frames   []string
	interval time.Duration
	message  string
	writer   io.Writer
	active   bool
	mu       sync.Mutex
	done     chan struct{}
}

func NewSpinner(message string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		message:  message,
		writer:   os.Stdout,
		done:     make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		frame := 0
		for {
			select {
			case <-s.done:
				s.clearLine()
				return
			default:
				s.mu.Lock()
				fmt.Fprintf(s.writer, "\r%s %s", s.frames[frame%len(s.frames)], s.message)
				s.mu.Unlock()
				frame++
				time.Sleep(s.interval)
			}
		}
	}()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	close(s.done)
	s.done = make(chan struct{})
}

func (s *Spinner) Success(message string) {
	s.Stop()
	fmt.Fprintf(s.writer, "\r✅ %s\n", message)
}

func (s *Spinner) Error(message string) {
	s.Stop()
	fmt.Fprintf(s.writer, "\r❌ %s\n", message)
}

func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) clearLine() {
	fmt.Fprint(s.writer, "\r\033[K")
}

// WithSpinner runs operation behind a spinner unless verbose logging is
// on, in which case the log lines are the progress display.
func WithSpinner(message string, operation func() error) error {
	if VerboseMode {
		return operation()
	}

	spinner := NewSpinner(message)
	spinner.Start()

	err := operation()
	if err != nil {
		spinner.Error(fmt.Sprintf("Failed: %s", message))
		return err
	}
	spinner.Success(message)
	return nil
}
