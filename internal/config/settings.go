package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Settings holds the optional defaults read from anemo.conf: a bare
// key=value file in the same format and spirit as the teacher's alias
// file, generalized to package-manager settings.
type Settings struct {
	DefaultPriority   int
	DefaultArch       string
	FetchConcurrency  int
}

// DefaultSettings returns the settings anemo uses when no config file
// is present or a key is omitted.
func DefaultSettings() Settings {
	return Settings{
		DefaultPriority:  50,
		DefaultArch:      "",
		FetchConcurrency: 4,
	}
}

// LoadSettings reads path and overlays any recognized key=value lines on
// top of DefaultSettings. A missing file is not an error. Malformed or
// unrecognized lines are silently skipped.
func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if val == "" {
			continue
		}

		switch key {
		case "default_priority":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.DefaultPriority = n
			}
		case "default_arch":
			cfg.DefaultArch = val
		case "fetch_concurrency":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.FetchConcurrency = n
			}
		}
	}

	return cfg, scanner.Err()
}
