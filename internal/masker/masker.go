// Package masker redacts sensitive data from event payloads before they
// reach disk. Masking is total (any input produces an output, nothing is
// passed through unmaskable) and idempotent (masking a masked payload is a
// no-op).
package masker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/actionlog-project/actionlog/pkg/model"
)

// maxDepth bounds payload recursion so cyclic or absurdly nested values are
// stringified instead of overflowing the stack.
const maxDepth = 32

// truncationSuffix terminates every truncated string; its presence marks a
// value as already truncated.
const truncationSuffix = " chars total]"

// Masker applies the process-wide masking rule set. Immutable after
// construction.
type Masker struct {
	enabled         bool
	sensitiveFields map[string]bool
	maxChars        int
}

// Option configures a Masker.
type Option func(*Masker)

// WithCustomFields adds caller-configured sensitive field names to the
// built-in list.
func WithCustomFields(names []string) Option {
	return func(m *Masker) {
		for _, n := range names {
			if n != "" {
				m.sensitiveFields[n] = true
			}
		}
	}
}

// WithMaxPayloadChars sets the per-string truncation threshold.
func WithMaxPayloadChars(n int) Option {
	return func(m *Masker) {
		if n > 0 {
			m.maxChars = n
		}
	}
}

// Disabled turns masking off entirely; Mask becomes the identity function.
// This is a documented privacy/debuggability trade-off, not a default.
func Disabled() Option {
	return func(m *Masker) { m.enabled = false }
}

// New constructs a Masker with the built-in rule set.
func New(opts ...Option) *Masker {
	m := &Masker{
		enabled:         true,
		sensitiveFields: make(map[string]bool, len(builtinSensitiveFields)),
		maxChars:        4096,
	}
	for _, f := range builtinSensitiveFields {
		m.sensitiveFields[f] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mask returns a copy of the event with its payload redacted. The envelope
// fields pass through untouched; the input event is never modified.
func (m *Masker) Mask(e *model.Event) *model.Event {
	if e == nil {
		return nil
	}
	if !m.enabled || len(e.Payload) == 0 {
		return e
	}
	masked := *e
	masked.Payload = m.maskMap(e.Payload, 0)
	return &masked
}

func (m *Masker) maskMap(in map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if m.sensitiveFields[k] {
			out[k] = RedactedMarker
			continue
		}
		out[k] = m.maskValue(v, depth+1)
	}
	return out
}

func (m *Masker) maskValue(v any, depth int) any {
	if depth > maxDepth {
		return m.maskString(stringify(v))
	}

	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return m.maskString(val)
	case map[string]any:
		return m.maskMap(val, depth)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.maskValue(item, depth+1)
		}
		return out
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return val
	default:
		// Unrecognized types are stringified and then pattern-matched so
		// masking never has to fail or pass a value through unchecked.
		return m.maskString(stringify(val))
	}
}

func (m *Masker) maskString(s string) string {
	for _, rule := range patternRules {
		s = rule.re.ReplaceAllString(s, rule.replacement)
	}
	return m.truncate(s)
}

// truncate bounds record size independently of masking. Already-truncated
// strings keep their marker instead of being truncated again. The cut backs
// up to a rune boundary so the prefix stays valid UTF-8.
func (m *Masker) truncate(s string) string {
	if len(s) <= m.maxChars || strings.HasSuffix(s, truncationSuffix) {
		return s
	}
	cut := m.maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...[truncated, %d%s", s[:cut], len(s), truncationSuffix)
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
