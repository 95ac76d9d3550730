// Package fixtures renders game spec documents used by tests from embedded
// templates.
package fixtures

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed testdata/*.tmpl
var fs embed.FS

func seq(start, end int) []int {
	if start > end {
		return []int{}
	}
	result := make([]int, end-start+1)
	for i := range result {
		result[i] = start + i
	}
	return result
}

var templateFuncs = template.FuncMap{
	"seq": seq,
	"add": func(a, b int) int { return a + b },
}

// Render executes the embedded template name with data.
func Render(name string, data any) (string, error) {
	fixture, err := fs.ReadFile("testdata/" + name)
	if err != nil {
		return "", fmt.Errorf("error reading fixture: %w", err)
	}

	var buf bytes.Buffer
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(string(fixture))
	if err != nil {
		return "", fmt.Errorf("error parsing template: %w", err)
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template: %w", err)
	}
	return buf.String(), nil
}

// GameSpec describes the generated game spec: one fungible asset and
// Classes purchasable classes with one attribute each.
type GameSpec struct {
	Name    string
	Classes int
}

// WriteGameSpec renders the game spec template into dir and returns the
// path of the file.
func WriteGameSpec(dir string, spec GameSpec) (string, error) {
	out, err := Render("game_spec.json.tmpl", spec)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "game_spec.json")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("error writing fixture: %w", err)
	}
	return path, nil
}
