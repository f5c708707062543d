package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var _ Provider = (*Registry)(nil)

type Handler func(ctx context.Context, arguments map[string]any) (any, error)

type Descriptor struct {
	Name        Name
	Description string

	Input  *jsonschema.Schema
	Output *jsonschema.Schema

	Handler Handler
}

type entry struct {
	descriptor Descriptor

	input  *jsonschema.Resolved
	output *jsonschema.Resolved

	parameters map[string]any
}

// Registry holds the tools the agent may call. Tools are registered at
// startup; lookups and invocations are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[Name]*entry
	order []Name
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		tools: make(map[Name]*entry),
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) Register(d Descriptor) error {
	if !d.Name.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownTool, d.Name)
	}

	if d.Handler == nil || d.Input == nil {
		return fmt.Errorf("%w: %s", ErrInvalidTool, d.Name)
	}

	input, err := d.Input.Resolve(&jsonschema.ResolveOptions{})

	if err != nil {
		return fmt.Errorf("tool %s: input schema: %w", d.Name, err)
	}

	e := &entry{
		descriptor: d,
		input:      input,
	}

	if d.Output != nil {
		output, err := d.Output.Resolve(&jsonschema.ResolveOptions{})

		if err != nil {
			return fmt.Errorf("tool %s: output schema: %w", d.Name, err)
		}

		e.output = output
	}

	data, err := json.Marshal(d.Input)

	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &e.parameters); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}

	r.tools[d.Name] = e
	r.order = append(r.order, d.Name)

	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Definitions lists the registered tools in registration order.
func (r *Registry) Definitions() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.order))

	for _, name := range r.order {
		e := r.tools[name]

		result = append(result, Tool{
			Name:        string(name),
			Description: e.descriptor.Description,

			Parameters: e.parameters,
		})
	}

	return result
}

func (r *Registry) Tools(ctx context.Context) ([]Tool, error) {
	return r.Definitions(), nil
}

func (r *Registry) Execute(ctx context.Context, name string, parameters map[string]any) (any, error) {
	data, err := json.Marshal(parameters)

	if err != nil {
		return nil, err
	}

	result := r.Invoke(ctx, Call{
		Name:      name,
		Arguments: string(data),
	})

	return result.Output, result.Err
}

// Invoke validates and runs a single call. Every failure, including unknown
// tools, malformed arguments and panics, is reported through Result.Err.
func (r *Registry) Invoke(ctx context.Context, call Call) (result Result) {
	result = Result{
		ID:   call.ID,
		Name: call.Name,
	}

	r.mu.RLock()
	e, ok := r.tools[Name(call.Name)]
	r.mu.RUnlock()

	if !ok {
		result.Err = &ValidationError{Tool: call.Name, Message: "no such tool"}
		return result
	}

	arguments := map[string]any{}

	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
			result.Err = &ValidationError{Tool: call.Name, Message: "arguments are not a JSON object"}
			return result
		}
	}

	if err := e.input.Validate(arguments); err != nil {
		result.Err = &ValidationError{Tool: call.Name, Message: err.Error()}
		return result
	}

	defer func() {
		if v := recover(); v != nil {
			result.Output = nil
			result.Err = &ExecutionError{Tool: call.Name, Err: fmt.Errorf("panic: %v", v)}
		}
	}()

	output, err := e.descriptor.Handler(ctx, arguments)

	if err != nil {
		result.Err = &ExecutionError{Tool: call.Name, Err: err}
		return result
	}

	if e.output != nil {
		if err := validateOutput(e.output, output); err != nil {
			result.Err = &ExecutionError{Tool: call.Name, Err: err}
			return result
		}
	}

	result.Output = output
	return result
}

// InvokeAll runs calls concurrently and returns results in call order.
func (r *Registry) InvokeAll(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))

	if len(calls) == 1 {
		results[0] = r.Invoke(ctx, calls[0])
		return results
	}

	var wg sync.WaitGroup

	for i, c := range calls {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i] = r.Invoke(ctx, c)
		}()
	}

	wg.Wait()

	return results
}

func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func validateOutput(schema *jsonschema.Resolved, output any) error {
	data, err := json.Marshal(output)

	if err != nil {
		return err
	}

	var value any

	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("output does not match schema: %w", err)
	}

	return nil
}
