package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// knownKey reports whether an env-file key is one the console reads. The
// console's own settings live under the REAPER_ prefix; LOG_LEVEL and
// FETCH_TIMEOUT_SECONDS are the two shared knobs outside it.
func knownKey(key string) bool {
	if strings.HasPrefix(key, "REAPER_") {
		return true
	}
	switch key {
	case "LOG_LEVEL", "FETCH_TIMEOUT_SECONDS":
		return true
	}
	return false
}

// loadEnvFile applies a KEY=value file to the process environment. Real
// environment variables win over file values, and keys the console does not
// read are skipped so a shared .env cannot leak unrelated settings into the
// process.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		key, value, ok, err := parseEnvLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNum, err)
		}
		if !ok || !knownKey(key) {
			continue
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading env file: %w", err)
	}
	return nil
}

// parseEnvLine splits one env-file line into key and value. ok is false for
// blank lines and comments. Matching double or single quotes around the
// value are stripped.
func parseEnvLine(raw string) (key, value string, ok bool, err error) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false, nil
	}

	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", false, fmt.Errorf("missing '=' separator")
	}

	key = strings.TrimSpace(line[:eq])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false, fmt.Errorf("invalid key %q", key)
	}

	value = strings.TrimSpace(line[eq+1:])
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true, nil
}
