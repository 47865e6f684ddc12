// Package query defines the structured form of a subscriber query and the
// parser contract the coordination engine depends on.
package query

// Window describes the windowing clause of a query, e.g. TUMBLING_COUNT_WINDOW(2).
type Window struct {
	Type string `json:"window_type"`
	Args []any  `json:"args"`
}

// ParsedQuery is the parser output. The engine reads Name, From, Content,
// Window and QoSPolicies; every other clause is forwarded opaquely.
type ParsedQuery struct {
	Name          string         `json:"name"`
	Output        []string       `json:"output,omitempty"`
	From          []string       `json:"from"`
	Content       []string       `json:"content"`
	Match         string         `json:"match"`
	OptionalMatch string         `json:"optional_match"`
	Where         string         `json:"where"`
	Window        Window         `json:"window"`
	Return        string         `json:"ret"`
	QoSPolicies   map[string]any `json:"qos_policies"`
}

// Publisher returns the source publisher identity, the first FROM entry.
func (q ParsedQuery) Publisher() (string, bool) {
	if len(q.From) == 0 || q.From[0] == "" {
		return "", false
	}
	return q.From[0], true
}

// Parser turns raw query text into a ParsedQuery.
type Parser interface {
	Parse(text string) (ParsedQuery, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(text string) (ParsedQuery, error)

// Parse calls f(text).
func (f ParserFunc) Parse(text string) (ParsedQuery, error) {
	return f(text)
}
