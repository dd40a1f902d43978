// Package composer builds the prompt handed to the generative fallback.
package composer

import "strings"

// DefaultPersona asks the model to stay in character and answer in Bangla.
const DefaultPersona = "You are Banglabot. Do not mention Google; আপনি শুধুমাত্র Banglabot।, respond in Bangla."

// Composer renders conversation context and the current utterance into a
// single prompt.
type Composer struct {
	persona string
}

// New creates a Composer. An empty persona omits the instruction suffix.
func New(persona string) *Composer {
	return &Composer{persona: strings.TrimSpace(persona)}
}

// Persona returns the instruction appended to every prompt.
func (c *Composer) Persona() string { return c.persona }

// Compose returns "Context: <ctx>\nUser: <utterance>" followed by
// " (<persona>)" when a persona is configured.
func (c *Composer) Compose(context, utterance string) string {
	var sb strings.Builder
	sb.Grow(len(context) + len(utterance) + len(c.persona) + 20)
	sb.WriteString("Context: ")
	sb.WriteString(context)
	sb.WriteString("\nUser: ")
	sb.WriteString(utterance)
	if c.persona != "" {
		sb.WriteString(" (")
		sb.WriteString(c.persona)
		sb.WriteString(")")
	}
	return sb.String()
}
