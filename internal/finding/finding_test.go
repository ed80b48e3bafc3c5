package finding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 20, Critical.Weight())
	assert.Equal(t, 15, High.Weight())
	assert.Equal(t, 8, Medium.Weight())
	assert.Equal(t, 3, Low.Weight())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in     string
		want   Severity
		wantOK bool
	}{
		{"Critical", Critical, true},
		{"high", High, true},
		{" MEDIUM ", Medium, true},
		{"low", Low, true},
		{"Info", Low, false},
		{"", Low, false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestSeverityEncoding(t *testing.T) {
	f := Finding{Type: "No HTTPS", Severity: High, Description: "plain http"}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"High"`)

	var back Finding
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, High, back.Severity)

	out, err := yaml.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), "severity: High")

	var fromYAML Finding
	require.NoError(t, yaml.Unmarshal([]byte("type: x\nseverity: bogus\n"), &fromYAML))
	assert.Equal(t, Low, fromYAML.Severity)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Finding{{Severity: High}, {Severity: High}, {Severity: Critical}})

	assert.Equal(t, 2, s["High"])
	assert.Equal(t, 1, s["Critical"])
	assert.Equal(t, 0, s["Medium"])
	assert.Len(t, s, 4)
}
