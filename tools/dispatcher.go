package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Dispatcher routes invocations to handlers by name.
type Dispatcher struct {
	handlers map[string]Handler
}

// New returns a Dispatcher serving the full catalog against b.
func New(b Backends) *Dispatcher {
	return NewDispatcher(Handlers(b)...)
}

// NewDispatcher returns a Dispatcher for the given handlers. A later handler
// replaces an earlier one with the same name.
func NewDispatcher(handlers ...Handler) *Dispatcher {
	m := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		m[h.Name()] = h
	}
	return &Dispatcher{handlers: m}
}

// Invoke runs the handler registered under name exactly once. Every failure
// is returned as *Error.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args json.RawMessage) (out []Content, err error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, unknownOperation(name)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &Error{Kind: UpstreamFailure, Message: fmt.Sprintf("%s: internal error: %v", name, r)}
		}
	}()

	out, err = h.Execute(ctx, args)
	if err != nil {
		var te *Error
		if !errors.As(err, &te) {
			return nil, upstreamFailure(err)
		}
		return nil, te
	}
	return out, nil
}
