// Package tools implements the tool registry: named callable
// capabilities with typed inputs and outputs, dispatched by tool name
// and method. The registry is a pure dispatch table; which tool to call
// for a given question is decided upstream by the orchestrator.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/adarshp14/AgentInsights/pkg/models"
	"github.com/rs/zerolog/log"
)

// ErrorCode identifies the failure class of a tool invocation.
type ErrorCode string

const (
	ErrUnknownTool      ErrorCode = "unknown_tool"
	ErrUnknownMethod    ErrorCode = "unknown_method"
	ErrInvalidArguments ErrorCode = "invalid_arguments"
	ErrExecutionError   ErrorCode = "execution_error"
)

// Error is the failure type returned by tool invocations. Callers can
// branch on Code without parsing messages.
type Error struct {
	Code    ErrorCode
	Tool    string
	Method  string
	Message string
}

func (e *Error) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("tool %s.%s: %s (%s)", e.Tool, e.Method, e.Message, e.Code)
	}
	return fmt.Sprintf("tool %s: %s (%s)", e.Tool, e.Message, e.Code)
}

func newError(code ErrorCode, tool, method, format string, args ...interface{}) *Error {
	return &Error{Code: code, Tool: tool, Method: method, Message: fmt.Sprintf(format, args...)}
}

// Tool is a named capability exposing one or more methods.
type Tool interface {
	Name() string
	Info() models.ToolInfo
	Invoke(ctx context.Context, method string, args map[string]interface{}) (interface{}, error)
}

// Registry dispatches invocations to registered tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry returns a registry with the built-in tools.
func NewDefaultRegistry(search *WebSearchConfig) *Registry {
	r := NewRegistry()
	r.Register(NewCalculator())
	r.Register(NewDateTime())
	r.Register(NewWebSearch(search))
	return r
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	r.tools[t.Name()] = t
	r.mu.Unlock()
	log.Debug().Str("tool", t.Name()).Msg("Tool registered")
}

// Invoke dispatches one tool call. Failures are reported as *Error with
// a stable code; the registry never panics on bad input.
func (r *Registry) Invoke(ctx context.Context, tool, method string, args map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	t, ok := r.tools[tool]
	r.mu.RUnlock()
	if !ok {
		return nil, newError(ErrUnknownTool, tool, method, "no such tool (available: %v)", r.names())
	}

	result, err := t.Invoke(ctx, method, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Str("method", method).Msg("Tool invocation failed")
		return nil, err
	}
	return result, nil
}

// List returns tool descriptors sorted by name.
func (r *Registry) List() []models.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]models.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, t.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (r *Registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringArg extracts a required string argument.
func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intArg extracts an optional integer argument, tolerating the float64
// values JSON decoding produces.
func intArg(args map[string]interface{}, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}
