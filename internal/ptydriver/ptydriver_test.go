package ptydriver

import (
	"strings"
	"testing"
	"time"
)

func waitForOutput(t *testing.T, h *Handle, want string, timeout time.Duration) string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var got strings.Builder
	for time.Now().Before(deadline) {
		chunk, err := h.TryRead()
		if err != nil {
			t.Fatalf("TryRead: %v", err)
		}
		if len(chunk) > 0 {
			got.Write(chunk)
			if strings.Contains(got.String(), want) {
				return got.String()
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, got.String())
	return ""
}

func TestSpawnAndEcho(t *testing.T) {
	h, err := Spawn("/bin/echo", []string{"hello-pty"}, ".", nil, 24, 80)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer h.Close()

	waitForOutput(t, h, "hello-pty", 2*time.Second)
}

func TestWriteRoundTripsThroughCat(t *testing.T) {
	h, err := Spawn("/bin/cat", nil, ".", nil, 24, 80)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer func() {
		h.Kill()
		h.Close()
	}()

	if _, err := h.Write([]byte("ping\n"), time.Second); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForOutput(t, h, "ping", 2*time.Second)
}

func TestResizeUpdatesSize(t *testing.T) {
	h, err := Spawn("/bin/cat", nil, ".", nil, 24, 80)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer func() {
		h.Kill()
		h.Close()
	}()

	if err := h.Resize(40, 120); err != nil {
		t.Fatalf("resize: %v", err)
	}
	rows, cols := h.Size()
	if rows != 40 || cols != 120 {
		t.Fatalf("size = (%d,%d), want (40,120)", rows, cols)
	}
}

func TestIsAliveAndKill(t *testing.T) {
	h, err := Spawn("/bin/cat", nil, ".", nil, 24, 80)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer h.Close()

	if !h.IsAlive() {
		t.Fatal("expected child to be alive right after spawn")
	}
	h.Kill()

	deadline := time.Now().Add(2 * time.Second)
	for h.IsAlive() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.IsAlive() {
		t.Fatal("expected child to be dead after Kill")
	}
}

func TestEnvOverridesAreVisibleToChild(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"-c", "echo $PANOPTES_TEST_VAR"}, ".",
		map[string]string{"PANOPTES_TEST_VAR": "set-by-test"}, 24, 80)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer h.Close()

	waitForOutput(t, h, "set-by-test", 2*time.Second)
}
