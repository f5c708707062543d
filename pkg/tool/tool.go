package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aiacademy/tutor/pkg/provider"
)

type Tool = provider.Tool

var (
	ErrInvalidTool   = errors.New("invalid tool")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("tool already registered")
)

// Provider is the generic tool surface used by observability wrappers and
// the MCP server.
type Provider interface {
	Tools(ctx context.Context) ([]Tool, error)
	Execute(ctx context.Context, name string, parameters map[string]any) (any, error)
}

// Name identifies one of the tools known to the tutor. The set is closed;
// registering or invoking any other name fails validation.
type Name string

const (
	SearchCourses Name = "searchCourses"
)

var knownTools = map[Name]bool{
	SearchCourses: true,
}

func (n Name) Known() bool {
	return knownTools[n]
}

// ValidationError reports arguments that do not satisfy a tool's input
// schema, or a call to a tool that does not exist.
type ValidationError struct {
	Tool    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, e.Message)
}

// ExecutionError reports a failure inside the tool itself.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type Call struct {
	ID string

	Name      string
	Arguments string
}

// Result is the outcome of one call. Exactly one of Output and Err is set.
type Result struct {
	ID   string
	Name string

	Output any
	Err    error
}

// Data renders the result as the JSON document handed back to the model.
func (r Result) Data() string {
	var value any = r.Output

	if r.Err != nil {
		value = map[string]any{
			"error": r.Err.Error(),
		}
	}

	data, err := json.Marshal(value)

	if err != nil {
		data, _ = json.Marshal(map[string]any{
			"error": err.Error(),
		})
	}

	return string(data)
}
