package runtimelog

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kim-interface/kimm/internal/textfix"
)

// Results reads results.txt, the output of the latest script run, with
// mis-decoded characters repaired line by line. Trailing blank lines are dropped.
func Results(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, textfix.Repair(strings.TrimRight(sc.Text(), "\r")))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, ErrNoEntries
	}
	return lines, nil
}
