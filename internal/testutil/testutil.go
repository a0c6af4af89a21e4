// Package testutil provides shared test helpers for databases, storage
// and the AI backend.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/starford/zhishi/internal/assist"
	"github.com/starford/zhishi/internal/index"
	"github.com/starford/zhishi/internal/storage"
)

// TestDB creates a temporary index database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "zhishi-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestGateway returns a gateway over an in-memory blob store. The store is
// returned too so tests can inspect writes or inject failures.
func TestGateway(t *testing.T) (storage.Gateway, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	gw := storage.NewBlobs(mem, Logger())
	t.Cleanup(func() { gw.Close() })
	return gw, mem
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FakeAI is a scripted AI client. A non-nil Err fails every call. Gate, if
// set, is waited on before answering.
type FakeAI struct {
	mu       sync.Mutex
	Analysis assist.Analysis
	Polished string
	Reply    string
	Err      error
	Gate     chan struct{}

	calls   int
	history [][]assist.Message
}

func (f *FakeAI) begin() error {
	if f.Gate != nil {
		<-f.Gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.Err
}

// Analyze implements ai.Client.
func (f *FakeAI) Analyze(_ context.Context, _, _ string) (assist.Analysis, error) {
	if err := f.begin(); err != nil {
		return assist.Analysis{}, err
	}
	return f.Analysis, nil
}

// Polish implements ai.Client.
func (f *FakeAI) Polish(_ context.Context, _, _ string) (string, error) {
	if err := f.begin(); err != nil {
		return "", err
	}
	return f.Polished, nil
}

// Chat implements ai.Client.
func (f *FakeAI) Chat(_ context.Context, _ string, history []assist.Message) (string, error) {
	if err := f.begin(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.history = append(f.history, history)
	f.mu.Unlock()
	return f.Reply, nil
}

// Calls returns the number of requests made.
func (f *FakeAI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ChatHistories returns the history passed to each Chat call.
func (f *FakeAI) ChatHistories() [][]assist.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history
}

// Recorder collects published events.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Publish implements noteservice.Notifier.
func (r *Recorder) Publish(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Count returns how many times event was published.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}
