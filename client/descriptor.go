package client

import (
	"sort"
	"strings"
	"time"
)

// Descriptor is the semantic tuple identifying one upstream request:
// operation name, normalized parameters and target language. It is a
// value type and is never mutated by the client; Execute works on a
// normalized copy.
type Descriptor struct {
	Op       string
	Params   map[string]string
	Language string
}

// CacheKey derives a deterministic, order-independent fingerprint for
// the descriptor. Two descriptors with the same operation, language and
// parameter set produce the same key regardless of how their parameter
// maps were populated. Credential and protocol boilerplate parameters
// are injected after keying and therefore never appear here.
func (d Descriptor) CacheKey() string {
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(d.Op)
	b.WriteString("?lang=")
	b.WriteString(d.Language)
	for _, name := range names {
		b.WriteByte('&')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(d.Params[name])
	}
	return b.String()
}

// Response is the normalized result of a successful upstream call.
type Response struct {
	// Payload is the raw upstream body. Shared between callers on
	// single-flight and cache hits; treat as read-only.
	Payload []byte

	// Status is the upstream HTTP status code.
	Status int

	// FetchedAt is when the payload was obtained from the network,
	// which for cached responses predates the current call.
	FetchedAt time.Time

	// FromCache reports whether the payload was served from the cache
	// without any upstream interaction.
	FromCache bool
}
