package enhance

import (
	"context"
	"sync"
	"time"

	"sp1assist/internal/core"
)

const validProgram = `#![no_main]
sp1_zkvm::entrypoint!(main);

pub fn main() {
    let score = sp1_zkvm::io::read::<u32>();
    let is_valid = score <= 1_000_000;
    sp1_zkvm::io::commit(&score);
    sp1_zkvm::io::commit(&is_valid);
}`

// stubCompleter returns scripted results in order; the last one repeats.
type stubCompleter struct {
	mu       sync.Mutex
	results  []stubResult
	requests []core.CompletionRequest
	block    chan struct{}
}

type stubResult struct {
	content string
	err     error
}

func (s *stubCompleter) Complete(_ context.Context, req core.CompletionRequest) (*core.ChatResponse, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	idx := len(s.requests) - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	r := s.results[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &core.ChatResponse{
		Choices: []core.Choice{{Message: core.Message{Role: core.RoleAssistant, Content: r.content}}},
	}, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func fenced(program string) string {
	return "Here is the program:\n```rust\n" + program + "\n```\nDone."
}

func baseArtifact() *core.Artifact {
	return &core.Artifact{
		Program:      "base program",
		ProveScript:  "prove",
		VerifyScript: "verify",
		EnvExample:   "env",
		TestScript:   "test",
		Instructions: "instructions",
	}
}
