package client

import (
	"fmt"
	"time"
)

// Operation declares one upstream endpoint: its path, its parameter
// schema and an optional TTL override for cached responses. Operations
// are static configuration registered at construction time.
type Operation struct {
	Name     string
	Path     string
	Required []string
	Optional []string

	// TTL overrides the client default cache TTL when positive.
	TTL time.Duration
}

// validate checks params against the operation schema: every required
// parameter must be present and non-empty, and no parameter outside
// the declared set is accepted.
func (op Operation) validate(params map[string]string) error {
	for _, name := range op.Required {
		if params[name] == "" {
			return validationError(op.Name, fmt.Sprintf("missing required parameter %q", name))
		}
	}
	allowed := make(map[string]bool, len(op.Required)+len(op.Optional))
	for _, name := range op.Required {
		allowed[name] = true
	}
	for _, name := range op.Optional {
		allowed[name] = true
	}
	for name := range params {
		if !allowed[name] {
			return validationError(op.Name, fmt.Sprintf("unknown parameter %q", name))
		}
	}
	return nil
}

func (op Operation) ttl(fallback time.Duration) time.Duration {
	if op.TTL > 0 {
		return op.TTL
	}
	return fallback
}
