package numerator

import "fmt"

// Config holds number formatting configuration for one document type.
type Config struct {
	// Prefix added to all formatted numbers (e.g. "QT", "SI")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 5,
	}
}

// Format renders a sequence value as a display number (e.g. "QT-00042").
// The sequence value itself, not the formatted string, is the uniqueness key.
func (c Config) Format(seq int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, padWidth, seq)
}
