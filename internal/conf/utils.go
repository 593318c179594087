// utils.go config file path and timezone helpers
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the default configuration paths for the
// current operating system, ordered by lookup priority.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryResource).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryResource).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "fieldrec"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "fieldrec"),
			"/etc/fieldrec",
		}
	}

	return configPaths, nil
}

// GetBasePath expands a possibly relative directory to an absolute path,
// creating it when missing.
func GetBasePath(path string) string {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err == nil {
			path = filepath.Join(wd, path)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		fmt.Printf("Error creating directory %s: %v\n", path, err)
	}
	return path
}

// TimeLocation resolves the configured timezone, falling back to the
// system local zone when unset.
func (s *Settings) TimeLocation() (*time.Location, error) {
	if s.Main.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Main.TimeZone)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("timezone", s.Main.TimeZone).
			Build()
	}
	return loc, nil
}
