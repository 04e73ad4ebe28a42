// Package player plays audio by running an external command line player,
// one process at a time.
package player

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/tlog"
)

// ErrNoPlayer is returned when no command was configured and none of the
// known players is installed.
var ErrNoPlayer = errors.New("no audio player found (install ffplay or mpv, or set [player] command)")

// Players we know how to drive, in order of preference. The file path is
// appended as the last argument.
var candidates = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpv", "--no-video", "--really-quiet"},
	{"afplay"},
	{"paplay"},
}

var lookPath = exec.LookPath

// How long Stop waits for the process to exit after signalling it.
const stopTimeout = 2 * time.Second

// Proc is a player backed by an external process.
type Proc struct {
	argv []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	path string
}

// New returns a player running command. An empty command picks the first
// installed player from a built in list.
func New(command []string) (*Proc, error) {
	if len(command) == 0 {
		argv, err := detect()
		if err != nil {
			return nil, err
		}
		command = argv
	}

	bin, err := lookPath(command[0])
	if err != nil {
		return nil, fmt.Errorf("player %q: %w", command[0], err)
	}

	argv := append([]string{bin}, command[1:]...)
	tlog.Tlogger.Infof("Using player %v", argv)
	return &Proc{argv: argv}, nil
}

func detect() ([]string, error) {
	for _, c := range candidates {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, ErrNoPlayer
}

// Command returns the resolved argv, without the file argument.
func (p *Proc) Command() []string { return append([]string(nil), p.argv...) }

// Play stops whatever is playing and starts path.
func (p *Proc) Play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	args := append(append([]string(nil), p.argv[1:]...), path)
	// #nosec G204 -- argv comes from the operator's config or the built in list
	cmd := exec.Command(p.argv[0], args...)
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.argv[0], err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		tlog.Tlogger.Debugf("Player for %s exited: %v", path, err)
		close(done)
	}()

	p.cmd, p.done, p.path = cmd, done, path
	return nil
}

// Stop halts playback. It is a no-op when nothing is playing.
func (p *Proc) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Proc) stopLocked() {
	if p.cmd == nil {
		return
	}

	select {
	case <-p.done:
		// Finished on its own.
	default:
		if err := killProcess(p.cmd); err != nil {
			tlog.Tlogger.Debugf("Killing player for %s: %v", p.path, err)
		}
		select {
		case <-p.done:
		case <-time.After(stopTimeout):
			tlog.Tlogger.Warnf("Player for %s did not exit after %s", p.path, stopTimeout)
		}
	}

	p.cmd, p.done, p.path = nil, nil, ""
}

// Playing reports whether a player process is still running and what it
// is playing.
func (p *Proc) Playing() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return "", false
	}
	select {
	case <-p.done:
		return "", false
	default:
		return p.path, true
	}
}
