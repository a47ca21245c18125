// Package tools maps the eight public tools and their operations onto the
// backend verb set. The registry is a fixed table; callers look up an
// operation's kind for authorization and execute against whichever backend
// is active.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/drafthaus/drawbridge/internal/cad"
)

// Kind classifies an operation for authorization: read operations inspect
// the drawing, write operations change it.
type Kind string

const (
	KindRead  Kind = "read"
	KindWrite Kind = "write"
)

// Operation is one dispatchable action of a tool.
type Operation struct {
	Name string
	Kind Kind
	Run  func(ctx context.Context, b cad.Backend, data cad.Params) cad.Result
}

// Tool groups related operations under one public name.
type Tool struct {
	Name       string
	Summary    string
	Operations []Operation
}

func (t *Tool) operation(name string) *Operation {
	for i := range t.Operations {
		if t.Operations[i].Name == name {
			return &t.Operations[i]
		}
	}
	return nil
}

func (t *Tool) operationNames() []string {
	names := make([]string, len(t.Operations))
	for i, op := range t.Operations {
		names[i] = op.Name
	}
	return names
}

// Registry holds the fixed tool table.
type Registry struct {
	tools map[string]*Tool
	order []string
}

func NewRegistry() *Registry {
	r := &Registry{tools: map[string]*Tool{}}
	for _, t := range []Tool{
		drawingTool(),
		entityTool(),
		layerTool(),
		blockTool(),
		annotationTool(),
		pidTool(),
		viewTool(),
		systemTool(),
	} {
		tool := t
		r.tools[tool.Name] = &tool
		r.order = append(r.order, tool.Name)
	}
	return r
}

// Kind reports the operation's kind, when the operation exists.
func (r *Registry) Kind(tool, operation string) (Kind, bool) {
	t, ok := r.tools[tool]
	if !ok {
		return "", false
	}
	op := t.operation(operation)
	if op == nil {
		return "", false
	}
	return op.Kind, true
}

// Execute dispatches one tool call against the backend. Unknown tools and
// operations come back as failed Results naming the valid choices.
func (r *Registry) Execute(ctx context.Context, b cad.Backend, tool, operation string, data cad.Params) cad.Result {
	t, ok := r.tools[tool]
	if !ok {
		return cad.FailResult(fmt.Sprintf(
			"Unknown tool: %s (valid: %s)", tool, strings.Join(r.order, ", ")))
	}
	op := t.operation(operation)
	if op == nil {
		return cad.FailResult(fmt.Sprintf(
			"Unknown %s operation: %s (valid: %s)",
			tool, operation, strings.Join(t.operationNames(), ", ")))
	}
	return op.Run(ctx, b, data)
}

// OperationInfo and ToolInfo describe the registry for the /tools endpoint.
type OperationInfo struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

type ToolInfo struct {
	Name       string          `json:"name"`
	Summary    string          `json:"summary"`
	Operations []OperationInfo `json:"operations"`
}

func (r *Registry) Describe() []ToolInfo {
	out := make([]ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		ops := make([]OperationInfo, len(t.Operations))
		for i, op := range t.Operations {
			ops[i] = OperationInfo{Name: op.Name, Kind: op.Kind}
		}
		out = append(out, ToolInfo{Name: t.Name, Summary: t.Summary, Operations: ops})
	}
	return out
}
