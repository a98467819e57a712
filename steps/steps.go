package steps

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/registry"
)

// Built-in step type keys.
const (
	TypeTransform   = "transform"
	TypeGenerate    = "generate"
	TypeHTTPRequest = "http_request"
	TypeChoice      = "choice"
	TypeSubWorkflow = "subworkflow"
)

// TextGenerator is the model-backed generation collaborator. Concrete
// providers live outside the engine; tests inject a stub.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Deps carries the collaborators the built-in step factories close
// over. Zero-value fields disable the step types that need them.
type Deps struct {
	Logger     *zap.Logger
	Generator  TextGenerator
	HTTPClient *http.Client
	Workflows  *registry.Registry[*engine.CompiledWorkflow]
	Rand       *rand.Rand
}

// RegisterBuiltins registers every built-in step type that its
// dependencies allow. Called once during startup wiring.
func RegisterBuiltins(reg *registry.Registry[engine.StepFactory], deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	if err := reg.Register(TypeTransform, TransformFactory()); err != nil {
		return err
	}
	if deps.Generator != nil {
		if err := reg.Register(TypeGenerate, GenerateFactory(deps.Generator)); err != nil {
			return err
		}
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if err := reg.Register(TypeHTTPRequest, HTTPRequestFactory(client)); err != nil {
		return err
	}
	if err := reg.Register(TypeChoice, ChoiceFactory(deps.Rand)); err != nil {
		return err
	}
	if deps.Workflows != nil {
		if err := reg.Register(TypeSubWorkflow, SubWorkflowFactory(deps.Workflows)); err != nil {
			return err
		}
	}
	return nil
}

// TransformFactory builds pure transformation steps. Config takes
// either "fn" (an engine.Handler supplied by the workflow author) or
// "template" + "target" to interpolate ${field} references from the
// current state into a single output field.
func TransformFactory() engine.StepFactory {
	return func(config map[string]any) (engine.Handler, error) {
		if fn, ok := config["fn"]; ok {
			handler, ok := fn.(engine.Handler)
			if !ok {
				if plain, ok2 := fn.(func(context.Context, engine.State) (engine.State, error)); ok2 {
					handler = plain
				} else {
					return nil, fmt.Errorf("transform: fn must be an engine.Handler, got %T", fn)
				}
			}
			return handler, nil
		}

		template, _ := config["template"].(string)
		target, _ := config["target"].(string)
		if template == "" || target == "" {
			return nil, fmt.Errorf("transform: requires either fn, or template and target")
		}
		return func(_ context.Context, state engine.State) (engine.State, error) {
			return engine.State{target: renderTemplate(template, state)}, nil
		}, nil
	}
}

// GenerateFactory builds steps that delegate to the text generation
// collaborator. Config: "prompt" (a ${field} template) and "target"
// (the state field that receives the completion).
func GenerateFactory(gen TextGenerator) engine.StepFactory {
	return func(config map[string]any) (engine.Handler, error) {
		prompt, _ := config["prompt"].(string)
		target, _ := config["target"].(string)
		if prompt == "" || target == "" {
			return nil, fmt.Errorf("generate: requires prompt and target")
		}
		return func(ctx context.Context, state engine.State) (engine.State, error) {
			out, err := gen.Generate(ctx, renderTemplate(prompt, state))
			if err != nil {
				return nil, fmt.Errorf("text generation: %w", err)
			}
			return engine.State{target: out}, nil
		}, nil
	}
}

// HTTPRequestFactory builds steps that perform one outbound HTTP
// request. Config: "url" (templated), optional "method" (default GET),
// "target" for the response, optional "timeout_ms".
func HTTPRequestFactory(client *http.Client) engine.StepFactory {
	return func(config map[string]any) (engine.Handler, error) {
		url, _ := config["url"].(string)
		target, _ := config["target"].(string)
		if url == "" || target == "" {
			return nil, fmt.Errorf("http_request: requires url and target")
		}
		method, _ := config["method"].(string)
		if method == "" {
			method = http.MethodGet
		}
		timeout := time.Duration(0)
		if ms, ok := asInt(config["timeout_ms"]); ok {
			timeout = time.Duration(ms) * time.Millisecond
		}

		return func(ctx context.Context, state engine.State) (engine.State, error) {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			req, err := http.NewRequestWithContext(ctx, method, renderTemplate(url, state), nil)
			if err != nil {
				return nil, fmt.Errorf("build request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return nil, fmt.Errorf("read response: %w", err)
			}
			return engine.State{target: map[string]any{
				"status": resp.StatusCode,
				"body":   string(body),
			}}, nil
		}, nil
	}
}

// ChoiceFactory builds steps that pick one of the configured options
// pseudo-randomly. Config: "options" (non-empty list) and "target".
// A seeded *rand.Rand makes picks reproducible in tests.
func ChoiceFactory(rng *rand.Rand) engine.StepFactory {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	var mu sync.Mutex

	return func(config map[string]any) (engine.Handler, error) {
		options, ok := config["options"].([]any)
		if !ok || len(options) == 0 {
			return nil, fmt.Errorf("choice: requires a non-empty options list")
		}
		target, _ := config["target"].(string)
		if target == "" {
			return nil, fmt.Errorf("choice: requires target")
		}
		return func(_ context.Context, _ engine.State) (engine.State, error) {
			mu.Lock()
			pick := options[rng.Intn(len(options))]
			mu.Unlock()
			return engine.State{target: pick}, nil
		}, nil
	}
}

// SubWorkflowFactory builds steps that run another compiled workflow
// from the workflow registry as a nested node. Config: "workflow_id",
// optional "target_key" to nest the child's final state under one
// field, optional "input_keys" to narrow the state handed to the
// child.
func SubWorkflowFactory(workflows *registry.Registry[*engine.CompiledWorkflow]) engine.StepFactory {
	return func(config map[string]any) (engine.Handler, error) {
		id, _ := config["workflow_id"].(string)
		if id == "" {
			return nil, fmt.Errorf("subworkflow: requires workflow_id")
		}
		child, ok := workflows.Get(id)
		if !ok {
			return nil, fmt.Errorf("subworkflow: workflow %q is not registered", id)
		}

		var opts []engine.SubWorkflowOption
		if key, _ := config["target_key"].(string); key != "" {
			opts = append(opts, engine.WithTargetKey(key))
		}
		if keys, ok := asStringSlice(config["input_keys"]); ok {
			opts = append(opts, engine.WithInputMapper(func(parent engine.State) engine.State {
				narrowed := engine.State{}
				for _, k := range keys {
					if v, present := parent[k]; present {
						narrowed[k] = v
					}
				}
				return narrowed
			}))
		}
		return child.AsStep(opts...), nil
	}
}

// renderTemplate substitutes ${field} references with the string form
// of the corresponding state values. Unknown references render empty.
func renderTemplate(template string, state engine.State) string {
	var sb strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "${")
		if start == -1 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end == -1 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])
		ref := rest[start+2 : start+end]
		if v, ok := state[ref]; ok {
			sb.WriteString(fmt.Sprintf("%v", v))
		}
		rest = rest[start+end+1:]
	}
	return sb.String()
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, len(s) > 0
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}
