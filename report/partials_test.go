package report

import (
	"bytes"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
)

var fixPartials = flag.Bool("fix-partials", false, "if true, update failing partial golden files with the received output")

func TestFixPartialsIsOff(t *testing.T) {
	if *fixPartials {
		t.Fatal("-fix-partials is enabled. This flag should only be used for updating golden files and must be disabled for regular tests.")
	}
}

// TestTemplatePartials renders each partial of the sample report and compares
// it to testdata/<partial>.md.
func TestTemplatePartials(t *testing.T) {
	files, err := fs.Glob(templates, "templates/report_*.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no template partial found")
	}
	r := sample(t)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".md")
		t.Run(name, func(t *testing.T) {
			content, err := fs.ReadFile(templates, file)
			if err != nil {
				t.Fatal(err)
			}
			tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
			if err != nil {
				t.Fatalf("failed to parse template %q: %v", file, err)
			}
			var out bytes.Buffer
			if err := tmpl.Execute(&out, r); err != nil {
				t.Fatalf("failed to execute template %q: %v", file, err)
			}

			golden := filepath.Join("testdata", name+".md")
			want, err := os.ReadFile(golden)
			if err != nil && !(os.IsNotExist(err) && *fixPartials) {
				t.Fatalf("failed to read golden file %q: %v", golden, err)
			}
			if got := out.String(); got != string(want) {
				if *fixPartials {
					if err := os.WriteFile(golden, []byte(got), 0644); err != nil {
						t.Fatal(err)
					}
					t.Logf("updated golden file %s", golden)
					return
				}
				t.Errorf("output mismatch for %s:\n--- want\n%s\n+++ got\n%s", name, want, got)
			}
		})
	}
}
