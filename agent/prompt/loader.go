package prompt

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed template/system.txt
var defaultRaw string

// Config sources the system prompt from the environment: an inline
// value, or a file path that takes precedence when readable.
type Config struct {
	Inline string `envconfig:"SYSTEM_PROMPT"`
	File   string `envconfig:"SYSTEM_PROMPT_FILE"`
}

// Load resolves the system prompt. Resolution order: embedded default,
// then inline env value, then file override. An unreadable or empty
// file logs a warning and keeps the previous value rather than failing
// startup.
func Load(cfg Config) string {
	text := strings.TrimSpace(defaultRaw)

	if inline := strings.TrimSpace(cfg.Inline); inline != "" {
		text = inline
	}

	if path := strings.TrimSpace(cfg.File); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("system prompt file not readable, using fallback")
			return text
		}
		if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
			text = trimmed
		}
	}

	return text
}
