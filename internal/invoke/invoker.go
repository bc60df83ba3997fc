package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Handler is a named unit of work taking and returning JSON.
type Handler func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

type Result struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Invoker dispatches named handlers in-process, either synchronously
// or fire-and-forget.
type Invoker struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewInvoker() *Invoker {
	return &Invoker{handlers: map[string]Handler{}}
}

func (i *Invoker) Register(name string, h Handler) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || h == nil {
		return
	}
	i.mu.Lock()
	i.handlers[key] = h
	i.mu.Unlock()
}

func (i *Invoker) lookup(name string) (Handler, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	h := i.handlers[strings.ToLower(strings.TrimSpace(name))]
	if h == nil {
		return nil, fmt.Errorf("no handler registered for %q", name)
	}
	return h, nil
}

// Invoke runs the named handler and waits for its result.
func (i *Invoker) Invoke(ctx context.Context, name string, payload interface{}) (*Result, error) {
	h, err := i.lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	body, err := h(ctx, data)
	if err != nil {
		return &Result{Status: 500, Body: body}, err
	}
	return &Result{Status: 200, Body: body}, nil
}

// InvokeAsync runs the named handler in the background. The caller is
// detached from the handler's lifetime; failures are only logged.
func (i *Invoker) InvokeAsync(ctx context.Context, name string, payload interface{}) error {
	h, err := i.lookup(name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("invoke_target", name))
	go func() {
		if _, err := h(context.Background(), data); err != nil {
			logger.Error("async invocation failed", zap.Error(err))
		}
	}()
	return nil
}
