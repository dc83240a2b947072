package rule

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadWeights reads a weights file: whitespace-separated "name value"
// pairs, one per line. Unknown features simply never appear in the
// returned SparseMap, which is equivalent to "default to zero" per
// SparseMap's missing-entry contract (spec.md section 6).
func LoadWeights(r io.Reader) (SparseMap, error) {
	ret := make(SparseMap)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("weights line %d: expected \"name value\", got %q", lineNum, line)
		}
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("weights line %d: parse value: %w", lineNum, err)
		}
		ret[FeatureId(fields[0])] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// WriteWeights writes a SparseMap in the same "name value" format.
func WriteWeights(w io.Writer, weights SparseMap) error {
	for name, val := range weights {
		if _, err := fmt.Fprintf(w, "%s %.6f\n", name, val); err != nil {
			return err
		}
	}
	return nil
}
