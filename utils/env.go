package utils

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given env files (default .env) into the process
// environment. Variables already set are kept; a missing file is not an error.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
