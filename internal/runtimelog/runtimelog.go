// Package runtimelog reads the files written by the i-Reporter script:
// logs/runtime_log.txt, the per-call timing log, and results.txt.
package runtimelog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// durationField is the index of the seconds value in a space-separated line.
const durationField = 3

// ErrNoEntries is returned when the log holds no timed calls.
var ErrNoEntries = errors.New("runtimelog: no entries")

// Summary is the average over every recorded call.
type Summary struct {
	Calls   int
	Total   decimal.Decimal
	Average decimal.Decimal
}

// String renders the average the way the status line shows it.
func (s Summary) String() string {
	return s.Average.StringFixed(6) + " seconds per script call"
}

// Read parses the log at path. Blank lines are skipped.
func Read(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open runtime log: %w", err)
	}
	defer f.Close()

	var sum Summary
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, err := parseLine(line)
		if err != nil {
			return Summary{}, fmt.Errorf("runtime log line %d: %w", n, err)
		}
		sum.Total = sum.Total.Add(d)
		sum.Calls++
	}
	if err := sc.Err(); err != nil {
		return Summary{}, fmt.Errorf("read runtime log: %w", err)
	}
	if sum.Calls == 0 {
		return Summary{}, ErrNoEntries
	}
	sum.Average = sum.Total.Div(decimal.NewFromInt(int64(sum.Calls)))
	return sum, nil
}

func parseLine(line string) (decimal.Decimal, error) {
	fields := strings.Split(line, " ")
	if len(fields) <= durationField {
		return decimal.Decimal{}, fmt.Errorf("expected at least %d fields, got %d", durationField+1, len(fields))
	}
	return decimal.NewFromString(fields[durationField])
}
