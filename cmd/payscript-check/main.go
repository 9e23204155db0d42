// payscript-check: Syntax checker for .pays files.
//
// Parses each script without evaluating it, so a whole directory of
// payoff scripts can be validated before they are stored or priced.
//
// Usage:
//
//	payscript-check FILE [FILE...]
//	payscript-check --dir DIR
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"payscript/internal/parser"
)

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path         string
	errors       []string
	expectsError bool
}

// checkFile parses a .pays file and returns syntax errors.
// A leading "# expect: error" directive marks scripts that are supposed
// to be rejected; the directive is stripped before parsing.
func checkFile(path string) checkResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return checkResult{
			path:   path,
			errors: []string{fmt.Sprintf("read error: %v", err)},
		}
	}

	lines := strings.Split(string(content), "\n")
	var scriptLines []string
	expectsError := false

	for _, line := range lines {
		if strings.HasPrefix(line, "# expect:") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "# expect:"))
			if rest == "error" {
				expectsError = true
			}
			continue
		}
		scriptLines = append(scriptLines, line)
	}

	result := checkResult{path: path, expectsError: expectsError}
	if _, err := parser.ParseString(strings.Join(scriptLines, "\n")); err != nil {
		result.errors = append(result.errors, err.Error())
	}
	return result
}

// findScriptFiles recursively finds all .pays files under dir.
func findScriptFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".pays") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: payscript-check [--dir DIR] FILE [FILE...]")
		os.Exit(1)
	}

	var files []string
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--dir" {
			if i+1 >= len(os.Args) {
				fmt.Fprintln(os.Stderr, "Error: --dir requires an argument")
				os.Exit(1)
			}
			i++
			found, err := findScriptFiles(os.Args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error scanning directory %s: %v\n", os.Args[i], err)
				os.Exit(1)
			}
			files = append(files, found...)
		} else {
			files = append(files, os.Args[i])
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No .pays files found")
		os.Exit(1)
	}

	passed := 0
	failed := 0
	expectedErr := 0

	for _, f := range files {
		result := checkFile(f)
		hasErrors := len(result.errors) > 0

		switch {
		case result.expectsError && hasErrors:
			expectedErr++
			fmt.Printf("OK   %s (expected error: %s)\n", f, result.errors[0])
		case result.expectsError:
			failed++
			fmt.Printf("FAIL %s (expected an error, parsed cleanly)\n", f)
		case hasErrors:
			failed++
			fmt.Printf("FAIL %s\n", f)
			for _, e := range result.errors {
				fmt.Printf("     %s\n", e)
			}
		default:
			passed++
			fmt.Printf("OK   %s\n", f)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Passed:          %d\n", passed)
	fmt.Printf("Expected errors: %d\n", expectedErr)
	fmt.Printf("Failed:          %d\n", failed)
	fmt.Printf("Total:           %d\n", len(files))

	if failed > 0 {
		os.Exit(1)
	}
}
