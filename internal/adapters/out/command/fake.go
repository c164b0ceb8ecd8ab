package command

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation made through a Recorder.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return commandLine(c.Name, c.Args)
}

// Result is the canned answer for a command line.
type Result struct {
	Output string
	Err    error
}

// Recorder is an in-memory Runner for tests. Results are keyed
// by command line; unknown commands succeed with no output.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	results map[string]Result
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{results: make(map[string]Result)}
}

// On sets the result returned for the exact command line.
func (r *Recorder) On(commandLine string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[commandLine] = result
}

// Run records the call and returns the configured result.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	result, ok := r.results[call.String()]
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []byte(result.Output), result.Err
}

// Calls returns the recorded command lines in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.calls))
	for i, c := range r.calls {
		lines[i] = c.String()
	}
	return lines
}

// Called reports whether a command line starting with prefix was run.
func (r *Recorder) Called(prefix string) bool {
	for _, line := range r.Calls() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
