// Package source is the file-loading collaborator spec.md §1 calls
// external to the interpreter core: it turns a main board path into a
// flat sequence of textual lines, resolving "#include <path>" directives
// recursively, and hands the result to internal/board for parsing.
package source

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadError is a fatal error while reading or inlining source files.
type LoadError struct {
	Path string
	Msg  string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Line is one textual board line together with the file it came from,
// used purely for diagnostics (the parser itself is line-number blind
// beyond what a board needs).
type Line struct {
	File string
	Text string
}

// LoadLines reads path and every file it "#include"s (recursively,
// relative to the including file's directory), dropping comment lines
// and expanding includes in place, per spec.md §6.1.
func LoadLines(path string) ([]Line, error) {
	visiting := map[string]bool{}
	return loadLines(path, visiting)
}

func loadLines(path string, visiting map[string]bool) ([]Line, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error()}
	}
	if visiting[abs] {
		return nil, &LoadError{Path: path, Msg: "circular #include"}
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error()}
	}
	defer f.Close()

	var out []Line
	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#include ") {
			rel := strings.TrimSpace(line[len("#include "):])
			rel = strings.Trim(rel, "<>\"")
			incPath := rel
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(dir, rel)
			}
			included, err := loadLines(incPath, visiting)
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Line{File: path, Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Path: path, Msg: err.Error()}
	}
	return out, nil
}
