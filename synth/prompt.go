package synth

import (
	"fmt"
	"path"
	"strings"
)

// ApplyTriggerWord prefixes the LoRA activation token to the prompt unless it
// is already present. The 360-diffusion LoRA only steers generation toward
// equirectangular layouts when its trigger token appears in the prompt.
// This is a pure function with no side effects.
func ApplyTriggerWord(prompt, triggerWord string) string {
	if triggerWord == "" {
		return prompt
	}

	lowerPrompt := strings.ToLower(prompt)
	lowerTrigger := strings.ToLower(triggerWord)
	for _, token := range strings.FieldsFunc(lowerPrompt, func(r rune) bool {
		return r == ' ' || r == ','
	}) {
		if token == lowerTrigger {
			return prompt
		}
	}

	return triggerWord + ", " + prompt
}

// ApplyLoraTag appends the inline LoRA reference understood by the inference
// server. The tag name is the final path element of the LoRA identifier, so
// a hub id like "ProGamerGov/360-Diffusion-LoRA-sd-v1-5" maps to the local
// adapter file name.
// This is a pure function with no side effects.
func ApplyLoraTag(prompt, loraID string, weight float64) string {
	if loraID == "" {
		return prompt
	}

	name := path.Base(loraID)
	tag := fmt.Sprintf("<lora:%s:%.2g>", name, weight)
	if strings.Contains(prompt, tag) {
		return prompt
	}
	return prompt + " " + tag
}
