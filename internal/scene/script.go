package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScript wraps every parse and validation failure.
var ErrInvalidScript = errors.New("scene: invalid script")

// Format is a script encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Step kinds.
const (
	KindSay   = "say"
	KindWait  = "wait"
	KindSet   = "set"
	KindAwait = "await"
	KindGoto  = "goto"
)

// Script is a scene: named states, each running an ordered list of steps
// when entered.
type Script struct {
	Name    string      `toml:"name" yaml:"name"`
	Initial string      `toml:"initial" yaml:"initial"`
	States  []StateSpec `toml:"states" yaml:"states"`
}

// StateSpec describes one scene state.
type StateSpec struct {
	Name  string `toml:"name" yaml:"name"`
	Final bool   `toml:"final" yaml:"final"`
	Steps []Step `toml:"steps" yaml:"steps"`
}

// Step is one entry of a state's step list. Which fields apply depends on
// Kind.
type Step struct {
	Kind     string `toml:"kind" yaml:"kind"`
	Text     string `toml:"text,omitempty" yaml:"text,omitempty"`
	Duration string `toml:"duration,omitempty" yaml:"duration,omitempty"`
	Key      string `toml:"key,omitempty" yaml:"key,omitempty"`
	Value    string `toml:"value,omitempty" yaml:"value,omitempty"`
	Target   string `toml:"target,omitempty" yaml:"target,omitempty"`
	Timeout  string `toml:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidScript, filepath.Ext(path))
	}
}

// Load reads, parses and validates the script at path.
func Load(path string) (*Script, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte, format Format) (*Script, error) {
	var s Script
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &s)
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidScript, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script structure.
func (s *Script) Validate() error {
	if len(s.States) == 0 {
		return invalidf("no states")
	}

	names := make(map[string]bool, len(s.States))
	for _, st := range s.States {
		if st.Name == "" {
			return invalidf("state with empty name")
		}
		if names[st.Name] {
			return invalidf("duplicate state %q", st.Name)
		}
		names[st.Name] = true
	}

	if s.Initial == "" {
		return invalidf("initial state is required")
	}
	if !names[s.Initial] {
		return invalidf("initial state %q is not defined", s.Initial)
	}

	for _, st := range s.States {
		for i, step := range st.Steps {
			if err := step.validate(names); err != nil {
				return invalidf("state %q step %d: %v", st.Name, i+1, err)
			}
		}
	}
	return nil
}

// State returns the spec of the named state.
func (s *Script) State(name string) (StateSpec, bool) {
	for _, st := range s.States {
		if st.Name == name {
			return st, true
		}
	}
	return StateSpec{}, false
}

func (st Step) validate(states map[string]bool) error {
	switch st.Kind {
	case KindSay:
		if st.Text == "" {
			return errors.New("say needs text")
		}
	case KindWait:
		if st.Duration == "" {
			return errors.New("wait needs a duration")
		}
		if _, err := parseDuration(st.Duration); err != nil {
			return err
		}
	case KindSet:
		if st.Key == "" {
			return errors.New("set needs a key")
		}
	case KindAwait:
		if st.Key == "" {
			return errors.New("await needs a key")
		}
		if st.Timeout != "" {
			if _, err := parseDuration(st.Timeout); err != nil {
				return err
			}
		}
	case KindGoto:
		if !states[st.Target] {
			return fmt.Errorf("goto target %q is not defined", st.Target)
		}
	case "":
		return errors.New("missing kind")
	default:
		return fmt.Errorf("unknown kind %q", st.Kind)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScript, fmt.Sprintf(format, args...))
}
