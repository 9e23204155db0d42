package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckTestdata(t *testing.T) {
	files, err := findScriptFiles("testdata")
	if err != nil {
		t.Fatalf("findScriptFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no .pays files under testdata")
	}

	for _, f := range files {
		result := checkFile(f)
		hasErrors := len(result.errors) > 0
		if result.expectsError && !hasErrors {
			t.Errorf("%s: expected an error, parsed cleanly", f)
		}
		if !result.expectsError && hasErrors {
			t.Errorf("%s: unexpected errors: %v", f, result.errors)
		}
	}
}

func TestCheckFileStripsDirective(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.pays")
	body := "# expect: error\nx = (\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := checkFile(path)
	if !result.expectsError {
		t.Error("directive not recognized")
	}
	if len(result.errors) == 0 {
		t.Error("broken script parsed cleanly")
	}
}

func TestCheckMissingFile(t *testing.T) {
	result := checkFile(filepath.Join(t.TempDir(), "absent.pays"))
	if len(result.errors) == 0 {
		t.Error("expected a read error")
	}
}

func TestFindScriptFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pays", "a.pays", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files, err := findScriptFiles(dir)
	if err != nil {
		t.Fatalf("findScriptFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	if filepath.Base(files[0]) != "a.pays" || filepath.Base(files[1]) != "b.pays" {
		t.Errorf("files = %v, want sorted", files)
	}
}
