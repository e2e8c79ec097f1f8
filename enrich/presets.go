package enrich

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset holds the instruction template for a single enrichment mode.
// The template must contain a %s placeholder for the user's prompt.
type Preset struct {
	Instruction string `yaml:"instruction"`
}

// defaultPresets are the built-in instruction templates. A presets file can
// override any subset of them; modes not mentioned keep their defaults.
var defaultPresets = map[Mode]Preset{
	ModeStandard: {
		Instruction: "Expand the following scene idea into a single vivid paragraph describing a complete 360-degree panoramic environment. Describe what is visible in every direction, including the sky above and the ground below. Do not mention cameras, photography, or the viewer. Scene idea: %s",
	},
	ModeDetailed: {
		Instruction: "Expand the following scene idea into a richly detailed paragraph describing a complete 360-degree panoramic environment. Name specific objects, materials, textures, and colors visible in every direction, including the sky above and the ground below. Do not mention cameras, photography, or the viewer. Scene idea: %s",
	},
	ModeCinematic: {
		Instruction: "Expand the following scene idea into a dramatic paragraph describing a complete 360-degree panoramic environment with cinematic lighting, strong atmosphere, and a clear mood. Describe what is visible in every direction, including the sky above and the ground below. Do not mention cameras, photography, or the viewer. Scene idea: %s",
	},
}

// PresetStore holds the active instruction templates for each mode.
type PresetStore struct {
	presets map[Mode]Preset
}

// NewPresetStore returns a store containing the built-in templates.
func NewPresetStore() *PresetStore {
	presets := make(map[Mode]Preset, len(defaultPresets))
	for mode, preset := range defaultPresets {
		presets[mode] = preset
	}
	return &PresetStore{presets: presets}
}

// LoadPresetStore builds a store from the built-in templates overlaid with
// entries from a YAML file. A missing path returns the defaults unchanged.
//
// File format:
//
//	standard:
//	  instruction: "Describe %s as a panorama..."
//	cinematic:
//	  instruction: "Describe %s with dramatic lighting..."
func LoadPresetStore(path string) (*PresetStore, error) {
	store := NewPresetStore()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}

	var overrides map[string]Preset
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	for name, preset := range overrides {
		mode, err := ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("presets file %s: %w", path, err)
		}
		if mode == ModeNone {
			return nil, fmt.Errorf("presets file %s: mode %q cannot carry an instruction", path, name)
		}
		if !strings.Contains(preset.Instruction, "%s") {
			return nil, fmt.Errorf("presets file %s: instruction for %q missing %%s placeholder", path, name)
		}
		store.presets[mode] = preset
	}

	return store, nil
}

// Instruction builds the full model instruction for the given mode and
// prompt. ModeNone returns the prompt unchanged.
func (s *PresetStore) Instruction(mode Mode, prompt string) string {
	if mode == ModeNone {
		return prompt
	}
	preset, ok := s.presets[mode]
	if !ok {
		preset = s.presets[ModeStandard]
	}
	return fmt.Sprintf(preset.Instruction, prompt)
}

// Modes returns the modes with an instruction template, for UI listings.
func (s *PresetStore) Modes() []Mode {
	modes := make([]Mode, 0, len(s.presets))
	for _, mode := range []Mode{ModeStandard, ModeDetailed, ModeCinematic} {
		if _, ok := s.presets[mode]; ok {
			modes = append(modes, mode)
		}
	}
	return modes
}
