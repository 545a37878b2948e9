package screen

import (
	"bufio"
	"bytes"
	"strings"
)

// ManifestEntry is one "name path preset" line of a reference manifest.
type ManifestEntry struct {
	Name   string
	Path   string
	Preset string
}

// ParseManifest reads a whitespace-separated manifest. Blank lines and lines
// starting with '#' are skipped; any other line needs at least three
// columns. Extra columns are ignored.
func ParseManifest(data []byte) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, configErrorf("manifest line %d has %d columns; expected name, path and preset", line, len(fields))
		}
		entries = append(entries, ManifestEntry{Name: fields[0], Path: fields[1], Preset: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Msg: "failed to read manifest", Err: err}
	}
	return entries, nil
}

// ForPreset returns the entries for preset, in manifest order.
func ForPreset(entries []ManifestEntry, preset string) []ManifestEntry {
	var out []ManifestEntry
	for _, e := range entries {
		if e.Preset == preset {
			out = append(out, e)
		}
	}
	return out
}
