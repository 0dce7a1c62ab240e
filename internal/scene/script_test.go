package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introTOML = `
name = "intro"
initial = "door"

[[states]]
name = "door"
steps = [
  { kind = "say", text = "Knock knock." },
  { kind = "wait", duration = "1s" },
  { kind = "goto", target = "hall" },
]

[[states]]
name = "hall"
final = true
steps = [{ kind = "say", text = "Come in." }]
`

const introYAML = `
name: intro
initial: door
states:
  - name: door
    steps:
      - {kind: say, text: "Knock knock."}
      - {kind: wait, duration: 1s}
      - {kind: goto, target: hall}
  - name: hall
    final: true
    steps:
      - {kind: say, text: "Come in."}
`

func TestParse_Formats(t *testing.T) {
	for _, tc := range []struct {
		format Format
		data   string
	}{
		{FormatTOML, introTOML},
		{FormatYAML, introYAML},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			s, err := Parse([]byte(tc.data), tc.format)
			require.NoError(t, err)

			assert.Equal(t, "intro", s.Name)
			assert.Equal(t, "door", s.Initial)
			require.Len(t, s.States, 2)

			door, ok := s.State("door")
			require.True(t, ok)
			require.Len(t, door.Steps, 3)
			assert.Equal(t, Step{Kind: KindWait, Duration: "1s"}, door.Steps[1])
			assert.Equal(t, "hall", door.Steps[2].Target)

			hall, ok := s.State("hall")
			require.True(t, ok)
			assert.True(t, hall.Final)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("name = [broken"), FormatTOML)
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = Parse([]byte("states: {"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = Parse([]byte(introTOML), Format("ini"))
	assert.ErrorIs(t, err, ErrInvalidScript)
}

func TestScript_Validate(t *testing.T) {
	state := func(name string, steps ...Step) StateSpec {
		return StateSpec{Name: name, Steps: steps}
	}

	tests := []struct {
		name   string
		script Script
		want   string
	}{
		{"no states", Script{Initial: "a"}, "no states"},
		{"missing initial", Script{States: []StateSpec{state("a")}}, "initial state is required"},
		{"unknown initial", Script{Initial: "b", States: []StateSpec{state("a")}}, "not defined"},
		{"empty state name", Script{Initial: "a", States: []StateSpec{state("")}}, "empty name"},
		{"duplicate state", Script{Initial: "a", States: []StateSpec{state("a"), state("a")}}, "duplicate"},
		{"missing kind", Script{Initial: "a", States: []StateSpec{state("a", Step{})}}, "missing kind"},
		{"unknown kind", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: "dance"})}}, "unknown kind"},
		{"say without text", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindSay})}}, "needs text"},
		{"bad duration", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindWait, Duration: "soon"})}}, "step 1"},
		{"negative duration", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindWait, Duration: "-1s"})}}, "negative"},
		{"set without key", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindSet})}}, "needs a key"},
		{"await bad timeout", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindAwait, Key: "k", Timeout: "x"})}}, "step 1"},
		{"goto unknown", Script{Initial: "a", States: []StateSpec{state("a", Step{Kind: KindGoto, Target: "z"})}}, `goto target "z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.script.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidScript))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "intro.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(introTOML), 0o644))
	s, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Len(t, s.States, 2)

	ymlPath := filepath.Join(dir, "intro.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte(introYAML), 0o644))
	s, err = Load(ymlPath)
	require.NoError(t, err)
	assert.Equal(t, "door", s.Initial)

	_, err = Load(filepath.Join(dir, "intro.json"))
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
