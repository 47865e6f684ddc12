package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/errors"
)

const simpleQuery = `
REGISTER QUERY my_first_query
OUTPUT K_GRAPH_JSON
CONTENT ObjectDetection, ColorDetection
MATCH (c1:Car {color:'blue'}), (c2:Car {color:'white'})
FROM test
WITHIN TUMBLING_COUNT_WINDOW(2)
RETURN *
`

func TestTextParser_SimpleQuery(t *testing.T) {
	parsed, err := NewTextParser().Parse(simpleQuery)
	require.NoError(t, err)

	assert.Equal(t, "my_first_query", parsed.Name)
	assert.Equal(t, []string{"K_GRAPH_JSON"}, parsed.Output)
	assert.Equal(t, []string{"ObjectDetection", "ColorDetection"}, parsed.Content)
	assert.Equal(t, "(c1:Car {color:'blue'}), (c2:Car {color:'white'})", parsed.Match)
	assert.Equal(t, []string{"test"}, parsed.From)
	assert.Equal(t, Window{Type: "TUMBLING_COUNT_WINDOW", Args: []any{2}}, parsed.Window)
	assert.Equal(t, "*", parsed.Return)
	assert.Empty(t, parsed.OptionalMatch)
	assert.Empty(t, parsed.Where)
	assert.Empty(t, parsed.QoSPolicies)

	pub, ok := parsed.Publisher()
	assert.True(t, ok)
	assert.Equal(t, "test", pub)
}

func TestTextParser_SingleLineWithQoS(t *testing.T) {
	text := "REGISTER QUERY aPerson OUTPUT K_GRAPH_JSON CONTENT ObjectDetection " +
		"MATCH (p:person) FROM publisher1 WITHIN TUMBLING_COUNT_WINDOW(1) " +
		"WITH_QOS accuracy = 5, latency = 8, energy_consumption = 3 RETURN *"

	parsed, err := NewTextParser().Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "aPerson", parsed.Name)
	assert.Equal(t, []string{"publisher1"}, parsed.From)
	assert.Equal(t, map[string]any{"accuracy": 5, "latency": 8, "energy_consumption": 3}, parsed.QoSPolicies)
}

func TestTextParser_OptionalMatchAndWhere(t *testing.T) {
	text := `REGISTER QUERY q
CONTENT ObjectDetection
MATCH (a:Person)
OPTIONAL MATCH (a)-[:NEAR]->(b:Car)
WHERE a.confidence > 0.5 AND b.color = 'red'
FROM cam1, cam2
WITHIN SLIDING_TIME_WINDOW(10, 2.5, 'sec')
RETURN a, b`

	parsed, err := NewTextParser().Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "(a:Person)", parsed.Match)
	assert.Equal(t, "(a)-[:NEAR]->(b:Car)", parsed.OptionalMatch)
	assert.Equal(t, "a.confidence > 0.5 AND b.color = 'red'", parsed.Where)
	assert.Equal(t, []string{"cam1", "cam2"}, parsed.From)
	assert.Equal(t, []any{10, 2.5, "sec"}, parsed.Window.Args)
	assert.Equal(t, "a, b", parsed.Return)
}

func TestTextParser_KeywordsInsideLiteralsAreIgnored(t *testing.T) {
	text := `REGISTER QUERY q CONTENT ObjectDetection
MATCH (c:Car {label:'FROM WHERE'}) FROM p1 WITHIN TUMBLING_COUNT_WINDOW(1) RETURN *`

	parsed, err := NewTextParser().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "(c:Car {label:'FROM WHERE'})", parsed.Match)
	assert.Equal(t, []string{"p1"}, parsed.From)
}

func TestTextParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"leading garbage", "SELECT * REGISTER QUERY q CONTENT A MATCH (a) FROM p WITHIN W(1) RETURN *"},
		{"missing from", "REGISTER QUERY q CONTENT A MATCH (a) WITHIN W(1) RETURN *"},
		{"missing content", "REGISTER QUERY q MATCH (a) FROM p WITHIN W(1) RETURN *"},
		{"duplicate clause", "REGISTER QUERY q CONTENT A CONTENT B MATCH (a) FROM p WITHIN W(1) RETURN *"},
		{"two-token name", "REGISTER QUERY my query CONTENT A MATCH (a) FROM p WITHIN W(1) RETURN *"},
		{"bad window", "REGISTER QUERY q CONTENT A MATCH (a) FROM p WITHIN forever RETURN *"},
		{"bad qos", "REGISTER QUERY q CONTENT A MATCH (a) FROM p WITHIN W(1) WITH_QOS accuracy RETURN *"},
		{"unterminated quote", "REGISTER QUERY q CONTENT A MATCH (a {x:'y}) FROM p WITHIN W(1) RETURN *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextParser().Parse(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrParsingFailed)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(text string) (ParsedQuery, error) {
		return ParsedQuery{Name: text}, nil
	})
	parsed, err := p.Parse("x")
	require.NoError(t, err)
	assert.Equal(t, "x", parsed.Name)
}
