package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/c360/clientmanager/errors"
)

// Clause keywords, longest first so "OPTIONAL MATCH" wins over "MATCH".
const (
	kwRegister      = "REGISTER QUERY"
	kwOptionalMatch = "OPTIONAL MATCH"
	kwQoS           = "WITH_QOS"
	kwOutput        = "OUTPUT"
	kwContent       = "CONTENT"
	kwWithin        = "WITHIN"
	kwReturn        = "RETURN"
	kwMatch         = "MATCH"
	kwWhere         = "WHERE"
	kwFrom          = "FROM"
)

var keywords = []string{
	kwRegister, kwOptionalMatch, kwQoS, kwOutput, kwContent,
	kwWithin, kwReturn, kwMatch, kwWhere, kwFrom,
}

var requiredClauses = []string{kwRegister, kwContent, kwMatch, kwFrom, kwWithin, kwReturn}

var windowPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)$`)

// TextParser extracts clauses from the textual query language:
//
//	REGISTER QUERY my_first_query
//	OUTPUT K_GRAPH_JSON
//	CONTENT ObjectDetection, ColorDetection
//	MATCH (c1:Car {color:'blue'}), (c2:Car {color:'white'})
//	FROM test
//	WITHIN TUMBLING_COUNT_WINDOW(2)
//	WITH_QOS accuracy = 5, latency = 8
//	RETURN *
//
// Keywords are only recognised outside quotes and brackets. The pattern,
// filter and return clauses are kept verbatim; their grammar belongs to the
// matcher.
type TextParser struct{}

// NewTextParser returns the default query text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse implements Parser.
func (p *TextParser) Parse(text string) (ParsedQuery, error) {
	clauses, err := scanClauses(strings.TrimSpace(text))
	if err != nil {
		return ParsedQuery{}, err
	}

	for _, kw := range requiredClauses {
		if strings.TrimSpace(clauses[kw]) == "" {
			return ParsedQuery{}, parseError("missing or empty %s clause", kw)
		}
	}

	name := strings.Fields(clauses[kwRegister])
	if len(name) != 1 {
		return ParsedQuery{}, parseError("query name must be a single token, got %q", clauses[kwRegister])
	}

	window, err := parseWindow(clauses[kwWithin])
	if err != nil {
		return ParsedQuery{}, err
	}

	qos, err := parseQoS(clauses[kwQoS])
	if err != nil {
		return ParsedQuery{}, err
	}

	parsed := ParsedQuery{
		Name:          name[0],
		Output:        splitList(clauses[kwOutput]),
		From:          splitList(clauses[kwFrom]),
		Content:       splitList(clauses[kwContent]),
		Match:         clauses[kwMatch],
		OptionalMatch: clauses[kwOptionalMatch],
		Where:         clauses[kwWhere],
		Window:        window,
		Return:        clauses[kwReturn],
		QoSPolicies:   qos,
	}

	if len(parsed.Content) == 0 {
		return ParsedQuery{}, parseError("CONTENT clause lists no content types")
	}
	if _, ok := parsed.Publisher(); !ok {
		return ParsedQuery{}, parseError("FROM clause lists no publisher")
	}

	return parsed, nil
}

func parseError(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrParsingFailed, fmt.Sprintf(format, args...)),
		"TextParser", "Parse", "query text")
}

// scanClauses splits text into keyword clauses. Text before the first
// keyword and repeated keywords are errors.
func scanClauses(text string) (map[string]string, error) {
	clauses := make(map[string]string)
	current := ""
	start := 0
	depth := 0
	var quote byte

	closeClause := func(end int) error {
		body := strings.TrimSpace(text[start:end])
		if current == "" {
			if body != "" {
				return parseError("unexpected text before first clause: %q", body)
			}
			return nil
		}
		if _, dup := clauses[current]; dup {
			return parseError("duplicate %s clause", current)
		}
		clauses[current] = body
		return nil
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (i == 0 || isSpace(text[i-1])):
			if kw, end := matchKeyword(text, i); kw != "" {
				if err := closeClause(i); err != nil {
					return nil, err
				}
				current = kw
				start = end
				i = end
				continue
			}
		}
		i++
	}

	if quote != 0 {
		return nil, parseError("unterminated quote")
	}
	if err := closeClause(len(text)); err != nil {
		return nil, err
	}
	return clauses, nil
}

// matchKeyword reports the keyword starting at i and the index just past it.
// Words of multi-word keywords may be separated by any run of whitespace.
func matchKeyword(text string, i int) (string, int) {
	for _, kw := range keywords {
		pos := i
		matched := true
		for w, word := range strings.Fields(kw) {
			if w > 0 {
				skipped := pos
				for pos < len(text) && isSpace(text[pos]) {
					pos++
				}
				if pos == skipped {
					matched = false
					break
				}
			}
			if !strings.HasPrefix(text[pos:], word) {
				matched = false
				break
			}
			pos += len(word)
		}
		if matched && (pos == len(text) || isSpace(text[pos])) {
			return kw, pos
		}
	}
	return "", i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func splitList(body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	parts := strings.Split(body, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseWindow(body string) (Window, error) {
	m := windowPattern.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return Window{}, parseError("malformed WITHIN clause %q", body)
	}

	w := Window{Type: m[1], Args: []any{}}
	for _, raw := range splitList(m[2]) {
		w.Args = append(w.Args, parseScalar(raw))
	}
	return w, nil
}

func parseQoS(body string) (map[string]any, error) {
	policies := make(map[string]any)
	for _, item := range splitList(body) {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, parseError("malformed WITH_QOS policy %q", item)
		}
		policies[key] = parseScalar(value)
	}
	return policies, nil
}

// parseScalar returns an int, a float64 or the unquoted string.
func parseScalar(raw string) any {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return strings.Trim(raw, `'"`)
}
