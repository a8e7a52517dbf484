package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"signalgate/internal/platform/logger"
)

// DefaultEnvFiles are read in order by LoadDotEnv when no files are given
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadDotEnv loads dotenv files into the process environment
// Missing files are skipped. Variables already set in the real environment win
// Returns the files that were actually loaded
func LoadDotEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Get().Warn().Err(err).Str("file", f).Msg("dotenv load failed")
			return loaded, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
