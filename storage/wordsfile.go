package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWordsFile reads one word per line. Blank lines and lines starting
// with # are skipped.
func LoadWordsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read words file: %w", err)
	}
	return words, nil
}
