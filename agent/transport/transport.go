package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// Config locates the tool process executable.
type Config struct {
	ServerCommand string `split_words:"true" required:"true"`
}

// Stdio owns the tool process and its line-framed byte streams.
// It is single-client: one goroutine writes, the same goroutine reads.
// Stderr is drained separately so diagnostic output from the child
// never lands on the protocol stream.
type Stdio struct {
	command string
	args    []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	wg sync.WaitGroup
}

// NewStdio builds a transport for the given command line. The command
// is split on whitespace; the first field is the executable.
func NewStdio(command string) (*Stdio, error) {
	parts := strings.Fields(strings.TrimSpace(command))
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: tool process command is empty", contractx.ErrValidation)
	}
	return &Stdio{command: parts[0], args: parts[1:]}, nil
}

// Start launches the tool process with stdin/stdout wired as pipes.
// A launch failure is fatal to the caller; there is no retry.
func (t *Stdio) Start(ctx context.Context) error {
	if t.cmd != nil {
		return errors.New("transport already started")
	}

	cmd := exec.CommandContext(ctx, t.command, t.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start tool process %s: %w", t.command, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReader(stdout)

	t.wg.Add(1)
	go t.drainStderr(stderr)

	log.Info().Str("command", t.command).Int("pid", cmd.Process.Pid).Msg("tool process started")
	return nil
}

// WriteLine transmits one newline-terminated frame. Pipe writes are
// unbuffered, so the frame is fully handed to the child on return.
func (t *Stdio) WriteLine(frame []byte) error {
	if t.stdin == nil {
		return contractx.ErrNotStarted
	}
	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	if _, err := t.stdin.Write(buf); err != nil {
		return fmt.Errorf("%w: write frame: %v", contractx.ErrStreamClosed, err)
	}
	return nil
}

// ReadLine blocks until one newline-terminated frame is available and
// returns it without the trailing newline. Any read failure on the
// pipe means the child is gone and surfaces as ErrStreamClosed.
func (t *Stdio) ReadLine() ([]byte, error) {
	if t.reader == nil {
		return nil, contractx.ErrNotStarted
	}
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrStreamClosed, err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// Stop terminates the tool process and waits for it to exit. It must
// run on every exit path of the owning loop, error paths included.
func (t *Stdio) Stop() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}

	_ = t.stdin.Close()
	_ = t.cmd.Process.Signal(syscall.SIGTERM)

	err := t.cmd.Wait()
	t.wg.Wait()
	t.cmd = nil

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("wait for tool process: %w", err)
		}
	}

	log.Info().Str("command", t.command).Msg("tool process stopped")
	return nil
}

func (t *Stdio) drainStderr(r io.Reader) {
	defer t.wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug().Str("command", t.command).Msg(scanner.Text())
	}
}
