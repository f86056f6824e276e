package core

import (
	"os"
	"testing"
	"time"
)

type fakeTerminal struct {
	finalized chan struct{}
}

func (f *fakeTerminal) Fini() { close(f.finalized) }

func TestGo_RecoversAndRestoresTerminal(t *testing.T) {
	codes := make(chan int, 1)
	exit = func(code int) { codes <- code }
	defer func() { exit = os.Exit }()

	term := &fakeTerminal{finalized: make(chan struct{})}
	SetCrashTerminal(term)

	Go(func() { panic("boom") })

	select {
	case <-term.finalized:
	case <-time.After(2 * time.Second):
		t.Fatal("terminal was not finalized")
	}

	select {
	case code := <-codes:
		if code != 1 {
			t.Errorf("Expected exit code 1, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exit was not called")
	}
}

func TestHandleCrash_NilIsNoop(t *testing.T) {
	called := false
	exit = func(int) { called = true }
	defer func() { exit = os.Exit }()

	HandleCrash(nil)
	if called {
		t.Error("Expected no exit for nil panic value")
	}
}
