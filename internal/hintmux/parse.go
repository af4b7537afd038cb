package hintmux

import (
	"fmt"
	"strconv"
	"strings"
)

const hintPrefix = "CSI_SELECT:"

// ParseHintLine parses a device hint line. The second return value is
// false for lines that are not hints at all (device chatter). An error
// means the line claimed to be a hint but could not be parsed.
func ParseHintLine(line string) ([]int, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, hintPrefix) {
		return nil, false, nil
	}

	body := strings.TrimPrefix(line, hintPrefix)
	if strings.TrimSpace(body) == "" {
		return nil, false, fmt.Errorf("hint carries no subcarriers")
	}

	parts := strings.Split(body, ",")
	subcarriers := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, false, fmt.Errorf("invalid subcarrier index %q", part)
		}
		subcarriers = append(subcarriers, n)
	}
	return subcarriers, true, nil
}
