package generator

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/mikeboe/sensight/pkg/clients"
)

// step is one scripted response: either text (split into chunks when
// streaming) or an error, optionally after some chunks were sent.
type step struct {
	chunks []string
	err    error
}

type fakeClient struct {
	mu     sync.Mutex
	script map[string][]step
	calls  []string
}

func newFakeClient(script map[string][]step) *fakeClient {
	return &fakeClient{script: script}
}

func (f *fakeClient) next(model string) step {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	steps := f.script[model]
	if len(steps) == 0 {
		return step{chunks: []string{"default " + model}}
	}
	s := steps[0]
	if len(steps) > 1 {
		f.script[model] = steps[1:]
	}
	return s
}

func (f *fakeClient) Generate(_ context.Context, model string, _ clients.Request) (string, error) {
	s := f.next(model)
	if s.err != nil {
		return "", s.err
	}
	var out string
	for _, c := range s.chunks {
		out += c
	}
	return out, nil
}

func (f *fakeClient) Stream(_ context.Context, model string, _ clients.Request) iter.Seq2[string, error] {
	s := f.next(model)
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}
