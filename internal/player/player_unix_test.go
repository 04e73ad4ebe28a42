//go:build unix

package player

import (
	"os/exec"
	"testing"
)

// sleep stands in for a player: the "file" is how long to play.
func sleepPlayer(t *testing.T) *Proc {
	t.Helper()
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	p, err := New([]string{"sleep"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestPlayAndStop(t *testing.T) {
	p := sleepPlayer(t)

	if err := p.Play("30"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if path, ok := p.Playing(); !ok || path != "30" {
		t.Fatalf("Playing() = %q, %v", path, ok)
	}

	p.Stop()
	if _, ok := p.Playing(); ok {
		t.Fatal("still playing after Stop")
	}
}

func TestPlayReplaces(t *testing.T) {
	p := sleepPlayer(t)

	if err := p.Play("30"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	p.mu.Lock()
	firstDone := p.done
	p.mu.Unlock()

	if err := p.Play("31"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	select {
	case <-firstDone:
	default:
		t.Fatal("first player process still running after second Play")
	}
	if path, ok := p.Playing(); !ok || path != "31" {
		t.Fatalf("Playing() = %q, %v", path, ok)
	}
}

func TestPlayStartFailure(t *testing.T) {
	p := sleepPlayer(t)
	p.argv = []string{"/nonexistent/player"}

	if err := p.Play("x"); err == nil {
		t.Fatal("expected start error")
	}
	if _, ok := p.Playing(); ok {
		t.Fatal("failed start reports playing")
	}
}
