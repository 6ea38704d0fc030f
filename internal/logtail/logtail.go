package logtail

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Read returns at most maxLines from the end of the file at path. A maxLines of
// zero or less returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Format renders one zerolog JSON line as "15:04:05 INF message key=value".
// Lines that are not JSON are returned trimmed and unchanged.
func Format(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return line
	}
	var buf bytes.Buffer
	w := zerolog.ConsoleWriter{Out: &buf, NoColor: true, TimeFormat: "15:04:05"}
	if _, err := w.Write([]byte(line)); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatLines formats each line, dropping blanks.
func FormatLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if formatted := Format(line); formatted != "" {
			out = append(out, formatted)
		}
	}
	return out
}

// Level extracts the three-letter level label from a formatted line, or "" when
// none is present.
func Level(formatted string) string {
	fields := strings.Fields(formatted)
	if len(fields) < 2 {
		return ""
	}
	switch fields[1] {
	case "TRC", "DBG", "INF", "WRN", "ERR", "FTL", "PNC":
		return fields[1]
	}
	return ""
}
