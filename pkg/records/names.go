package records

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadNameSet reads a newline-delimited list of read identifiers. Lines are
// trimmed and blank lines ignored.
func ReadNameSet(r io.Reader) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names[name] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read name list: %w", err)
	}
	return names, nil
}
