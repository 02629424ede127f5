package scheduler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// maxOutputLine caps one forwarded output line. Output past a longer line
// is drained unlogged so the child never blocks on a full pipe.
const maxOutputLine = 1 << 20

// ExecTask runs an external alert program as its own process. The child only
// sees Env, never the scheduler's inherited environment.
type ExecTask struct {
	name    string
	path    string
	env     []string
	logger  *logrus.Entry
	maxLine int
}

func NewExecTask(name, dir string, env []string, logger *logrus.Entry) *ExecTask {
	return &ExecTask{
		name:    name,
		path:    filepath.Join(dir, name),
		env:     append([]string(nil), env...),
		logger:  logger.WithField("task", name),
		maxLine: maxOutputLine,
	}
}

func (t *ExecTask) Name() string { return t.name }

func (t *ExecTask) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, t.path)
	cmd.Env = t.env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("launch %s: %w", t.path, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("launch %s: %w", t.path, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", t.path, err)
	}

	var pipes sync.WaitGroup
	pipes.Add(2)
	go t.forward(&pipes, stdout, "stdout", logrus.InfoLevel)
	go t.forward(&pipes, stderr, "stderr", logrus.WarnLevel)
	pipes.Wait()

	err = cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with code %d", t.name, exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("wait %s: %w", t.name, err)
	}
	t.logger.WithField("exit_code", 0).Debug("Process exited")
	return nil
}

// forward copies each output line of the child into the scheduler log.
func (t *ExecTask) forward(wg *sync.WaitGroup, r io.Reader, stream string, level logrus.Level) {
	defer wg.Done()
	streamLog := t.logger.WithField("stream", stream)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), t.maxLine)
	for scanner.Scan() {
		streamLog.Log(level, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		streamLog.WithError(err).Warn("Error reading task output, discarding the rest")
		_, _ = io.Copy(io.Discard, r)
	}
}
