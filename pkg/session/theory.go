package session

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// mandatoryMarker is the leading-comment a theory file carries to
// require a clean load (spec §6): a load failure on a marked file
// aborts Session construction; any other failure is only reported.
const mandatoryMarker = "// mandatory"

// TheoryLoadError reports one preload file's Learn failure.
type TheoryLoadError struct {
	File      string
	Mandatory bool
	Err       error
}

// LoadTheories preloads every *.sys2 file in dir except index.sys2, in
// lexicographic order (spec §6), returning one TheoryLoadError per file
// that failed to read or learn cleanly. A read failure on dir itself is
// reported as a single mandatory error since no theories can be found.
func (s *Session) LoadTheories(dir string) []TheoryLoadError {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []TheoryLoadError{{File: dir, Mandatory: true, Err: err}}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sys2" || e.Name() == "index.sys2" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var errs []TheoryLoadError
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, TheoryLoadError{File: name, Mandatory: false, Err: err})
			continue
		}
		mandatory := isMandatory(data)
		result := s.Learn(string(data))
		if !result.Success {
			errs = append(errs, TheoryLoadError{
				File:      name,
				Mandatory: mandatory,
				Err:       fmt.Errorf("line %d: %s", result.RejectedAt, result.Cause),
			})
		}
	}
	return errs
}

// isMandatory reports whether data's first non-blank line is the
// "// mandatory" marker.
func isMandatory(data []byte) bool {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return line == mandatoryMarker
	}
	return false
}
