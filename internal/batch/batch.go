// Package batch runs YAML-defined command sequences through the tool
// registry. Sequences are validated up front so a typo fails before
// anything draws.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/tools"
)

// Step is one tool call in a sequence.
type Step struct {
	Tool      string     `yaml:"tool" json:"tool"`
	Operation string     `yaml:"operation" json:"operation"`
	Data      cad.Params `yaml:"data,omitempty" json:"data,omitempty"`
}

// Sequence is an ordered list of steps loaded from YAML. Execution stops at
// the first failing step unless continue_on_error is set.
type Sequence struct {
	Name            string `yaml:"name" json:"name"`
	ContinueOnError bool   `yaml:"continue_on_error" json:"continue_on_error"`
	Steps           []Step `yaml:"steps" json:"steps"`
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	Index      int    `json:"index"`
	Tool       string `json:"tool"`
	Operation  string `json:"operation"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	Name       string       `json:"name,omitempty"`
	Steps      int          `json:"steps"`
	Failed     int          `json:"failed"`
	DurationMS int64        `json:"duration_ms"`
	Results    []StepResult `json:"results"`
}

// Journal records executed steps. Only Append is needed here.
type Journal interface {
	Append(ctx context.Context, e history.Entry) (string, error)
}

// Load reads and validates a sequence file against the registry.
func Load(path string, reg *tools.Registry) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(seq.Steps) == 0 {
		return nil, fmt.Errorf("batch file has no steps")
	}
	for i, s := range seq.Steps {
		if s.Tool == "" || s.Operation == "" {
			return nil, fmt.Errorf("step %d: tool and operation are required", i+1)
		}
		if _, ok := reg.Kind(s.Tool, s.Operation); !ok {
			return nil, fmt.Errorf("step %d: unknown operation %s/%s", i+1, s.Tool, s.Operation)
		}
	}
	return &seq, nil
}

// Runner executes sequences against a backend.
type Runner struct {
	registry *tools.Registry
	journal  Journal
}

// NewRunner creates a runner. journal may be nil to disable step recording.
func NewRunner(reg *tools.Registry, journal Journal) *Runner {
	return &Runner{registry: reg, journal: journal}
}

// Run executes the sequence in order. Steps run one at a time; the
// backend's command gate serializes against concurrent API calls anyway.
func (r *Runner) Run(ctx context.Context, b cad.Backend, seq *Sequence) *Summary {
	sum := &Summary{Name: seq.Name, Steps: len(seq.Steps)}
	start := time.Now()

	for i, s := range seq.Steps {
		if ctx.Err() != nil {
			break
		}

		stepStart := time.Now()
		res := r.registry.Execute(ctx, b, s.Tool, s.Operation, s.Data)
		elapsed := time.Since(stepStart)

		sum.Results = append(sum.Results, StepResult{
			Index:      i + 1,
			Tool:       s.Tool,
			Operation:  s.Operation,
			OK:         res.OK,
			Error:      res.Err,
			DurationMS: elapsed.Milliseconds(),
		})
		r.journalStep(b, s, res, elapsed)

		if !res.OK {
			sum.Failed++
			if !seq.ContinueOnError {
				break
			}
		}
	}

	sum.DurationMS = time.Since(start).Milliseconds()
	return sum
}

// journalStep is best effort, same as the API handler: a journal problem
// must not fail the batch.
func (r *Runner) journalStep(b cad.Backend, s Step, res cad.Result, elapsed time.Duration) {
	if r.journal == nil {
		return
	}
	var command string
	if len(s.Data) > 0 {
		if raw, err := json.Marshal(s.Data); err == nil {
			command = string(raw)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = r.journal.Append(ctx, history.Entry{
		Tool:       s.Tool,
		Operation:  s.Operation,
		Command:    command,
		OK:         res.OK,
		Error:      res.Err,
		DurationMS: elapsed.Milliseconds(),
		Backend:    b.Name(),
	})
}
