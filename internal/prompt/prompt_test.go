package prompt

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		vars    map[string]string
		want    string
		wantErr string
	}{
		{
			name: "simple substitution",
			text: "review {{file}} for bugs",
			vars: map[string]string{"file": "auth.go"},
			want: "review auth.go for bugs",
		},
		{
			name: "whitespace in braces",
			text: "fix {{ task }}",
			vars: map[string]string{"task": "the login flow"},
			want: "fix the login flow",
		},
		{
			name: "no placeholders",
			text: "plain prompt",
			vars: nil,
			want: "plain prompt",
		},
		{
			name:    "missing var fails loudly",
			text:    "do {{task}} on {{target}}",
			vars:    map[string]string{"task": "x"},
			wantErr: "target",
		},
		{
			name:    "missing vars sorted in message",
			text:    "{{zeta}} {{alpha}}",
			vars:    nil,
			wantErr: "alpha, zeta",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, tt.vars)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Render() error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVars(t *testing.T) {
	got := Vars("do {{task}} on {{target}} then {{task}} again")
	want := []string{"target", "task"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Vars() = %v, want %v", got, want)
	}
	if vars := Vars("nothing here"); len(vars) != 0 {
		t.Errorf("Vars() = %v, want none", vars)
	}
}

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		ok   bool
	}{
		{"inline only", Source{Inline: "x"}, true},
		{"file only", Source{File: "p.md"}, true},
		{"template only", Source{Template: "review"}, true},
		{"none", Source{}, false},
		{"inline and file", Source{Inline: "x", File: "p.md"}, false},
		{"all three", Source{Inline: "x", File: "p.md", Template: "t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errs.HasCode(err, errs.InvalidArgs) {
				t.Errorf("Validate() = %v, want INVALID_ARGS", err)
			}
		})
	}
}

func TestSource_ResolveInline(t *testing.T) {
	got, err := Source{Inline: "fix {{what}}"}.Resolve(t.TempDir(), map[string]string{"what": "tests"})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if got != "fix tests" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestSource_ResolveFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "prompt.md")
	if err := os.WriteFile(file, []byte("from a file\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Source{File: file}.Resolve(root, nil)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	// Trailing newlines are trimmed before the text reaches the pane.
	if got != "from a file" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestSource_ResolveFileMissing(t *testing.T) {
	_, err := Source{File: "/nonexistent/prompt.md"}.Resolve(t.TempDir(), nil)
	if !errs.HasCode(err, errs.InvalidArgs) {
		t.Errorf("Resolve() = %v, want INVALID_ARGS", err)
	}
}

func TestSource_ResolveTemplate(t *testing.T) {
	root := t.TempDir()
	writeNamed(t, paths.TemplatesDir(root), "review.md", "review {{file}} carefully")

	got, err := Source{Template: "review"}.Resolve(root, map[string]string{"file": "main.go"})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if got != "review main.go carefully" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestSource_ResolveTemplateMissing(t *testing.T) {
	_, err := Source{Template: "ghost"}.Resolve(t.TempDir(), nil)
	if !errs.HasCode(err, errs.PromptNotFound) {
		t.Errorf("Resolve() = %v, want PROMPT_NOT_FOUND", err)
	}
}

func TestFindNamed_Extensions(t *testing.T) {
	root := t.TempDir()
	writeNamed(t, paths.PromptsDir(root), "bare", "no extension")
	writeNamed(t, paths.PromptsDir(root), "doc.md", "markdown")

	for _, name := range []string{"bare", "doc"} {
		if _, err := FindNamed(root, "prompts", name); err != nil {
			t.Errorf("FindNamed(%q) = %v", name, err)
		}
	}
}

func TestListNamed(t *testing.T) {
	root := t.TempDir()
	writeNamed(t, paths.PromptsDir(root), "beta.md", "b")
	writeNamed(t, paths.PromptsDir(root), "alpha.txt", "a")

	got := ListNamed(root, "prompts")
	// The user-level directory may contribute extra names; the project
	// entries must be present and the whole list sorted.
	if !sort.StringsAreSorted(got) {
		t.Errorf("ListNamed() = %v, want sorted", got)
	}
	for _, want := range []string{"alpha", "beta"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ListNamed() = %v, missing %q", got, want)
		}
	}
}

func writeNamed(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
