package prompts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keys every prompts file is expected to provide.
const (
	Persona         = "persona"
	MentionPreamble = "mention_preamble"
	ThreadPreamble  = "thread_preamble"
)

//go:embed prompts.yaml
var defaults []byte

var store map[string]string

// Load parses the embedded defaults and then overlays path, if given.
// Keys missing from the override keep their default text.
func Load(path string) error {
	parsed, err := parse(defaults)
	if err != nil {
		return fmt.Errorf("failed to parse default prompts: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read prompts file %s: %w", path, err)
		}
		overrides, err := parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse prompts file %s: %w", path, err)
		}
		for k, v := range overrides {
			parsed[k] = v
		}
	}

	store = parsed
	return nil
}

func parse(data []byte) (map[string]string, error) {
	parsed := make(map[string]string)
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func Get(key string) string {
	if store == nil {
		return ""
	}
	return store[key]
}

func MustGet(key string) string {
	val := Get(key)
	if val == "" {
		panic(fmt.Sprintf("prompt %q not found", key))
	}
	return val
}

// Provider exposes the loaded prompts through a value that can be injected.
type Provider struct{}

func (Provider) Get(key string) string { return Get(key) }
func (Provider) MustGet(key string) string { return MustGet(key) }
