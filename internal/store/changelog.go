package store

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/session"
)

// Record appends "<timestamp> | <user> | <filename> | <action>" to the changelog.
func (s *Store) Record(filename, action string) error {
	path := s.env.Paths.Changelog
	if err := os.MkdirAll(s.env.Paths.Logs, defs.DirPerm); err != nil {
		return storageErr("create logs directory", s.env.Paths.Logs, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defs.FilePerm)
	if err != nil {
		return storageErr("open changelog", path, err)
	}
	line := strings.Join([]string{s.env.Stamp(), filename, action}, session.StampSeparator) + "\n"
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return storageErr("append changelog", path, err)
	}
	if err := f.Close(); err != nil {
		return storageErr("append changelog", path, err)
	}
	s.env.Logger.Info().Str("file", filename).Str("action", action).Msg("changelog")
	return nil
}

// ChangelogEntry is one parsed changelog line.
type ChangelogEntry struct {
	Time   string
	User   string
	File   string
	Action string
	Raw    string
}

// Changelog returns the last n entries, oldest first. n <= 0 returns all.
func (s *Store) Changelog(n int) ([]ChangelogEntry, error) {
	path := s.env.Paths.Changelog
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("open changelog", path, err)
	}
	defer func() { _ = f.Close() }()

	var entries []ChangelogEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, parseChangelogLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, storageErr("read changelog", path, err)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// parseChangelogLine splits on the first three separators; the action may
// itself contain the separator.
func parseChangelogLine(line string) ChangelogEntry {
	e := ChangelogEntry{Raw: line}
	parts := strings.SplitN(line, session.StampSeparator, 4)
	if len(parts) == 4 {
		e.Time, e.User, e.File, e.Action = parts[0], parts[1], parts[2], parts[3]
	} else {
		e.Action = line
	}
	return e
}
