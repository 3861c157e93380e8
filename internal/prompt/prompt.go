// Package prompt resolves agent prompts from inline text, prompt
// files, and named templates, and renders {{var}} placeholders.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Render substitutes {{name}} placeholders from vars. Unknown
// placeholders are an error so a typo in a schedule or swarm file fails
// loudly instead of leaking "{{task}}" into an agent prompt.
func Render(text string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		missing = append(missing, name)
		return m
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", errs.New(errs.InvalidArgs, "prompt references undefined vars: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Vars extracts the placeholder names a template references.
func Vars(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Source selects exactly one prompt origin.
type Source struct {
	Inline   string `json:"inline,omitempty"`
	File     string `json:"file,omitempty"`
	Template string `json:"template,omitempty"`
}

// Validate rejects ambiguous or empty sources before any side effect.
func (s Source) Validate() error {
	set := 0
	for _, v := range []string{s.Inline, s.File, s.Template} {
		if v != "" {
			set++
		}
	}
	if set == 0 {
		return errs.New(errs.InvalidArgs, "one of --prompt, --prompt-file, or --template is required")
	}
	if set > 1 {
		return errs.New(errs.InvalidArgs, "--prompt, --prompt-file, and --template are mutually exclusive")
	}
	return nil
}

// Resolve loads the prompt text and renders vars.
func (s Source) Resolve(projectRoot string, vars map[string]string) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	var text string
	switch {
	case s.Inline != "":
		text = s.Inline
	case s.File != "":
		data, err := os.ReadFile(paths.ExpandHome(s.File))
		if err != nil {
			return "", errs.Wrap(errs.InvalidArgs, err, "reading prompt file %s", s.File)
		}
		text = string(data)
	case s.Template != "":
		path, err := FindNamed(projectRoot, "templates", s.Template)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading template: %w", err)
		}
		text = string(data)
	}

	return Render(strings.TrimRight(text, "\n"), vars)
}

// FindNamed locates a named prompt, template, or swarm file. Project
// directories shadow the user-level ones. kind is "prompts",
// "templates", or "swarms".
func FindNamed(projectRoot, kind, name string) (string, error) {
	for _, dir := range searchDirs(projectRoot, kind) {
		for _, ext := range extensionsFor(kind) {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", errs.New(errs.PromptNotFound, "no %s named %q", strings.TrimSuffix(kind, "s"), name)
}

// ListNamed returns the names available for a kind, project entries
// first, deduplicated.
func ListNamed(projectRoot, kind string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range searchDirs(projectRoot, kind) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			for _, ext := range extensionsFor(kind) {
				if strings.HasSuffix(name, ext) {
					name = strings.TrimSuffix(name, ext)
					break
				}
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func searchDirs(projectRoot, kind string) []string {
	var project, global string
	switch kind {
	case "prompts":
		project, global = paths.PromptsDir(projectRoot), paths.GlobalPromptsDir()
	case "templates":
		project, global = paths.TemplatesDir(projectRoot), paths.GlobalTemplatesDir()
	case "swarms":
		project, global = paths.SwarmsDir(projectRoot), paths.GlobalSwarmsDir()
	}
	dirs := []string{project}
	if global != "" {
		dirs = append(dirs, global)
	}
	return dirs
}

func extensionsFor(kind string) []string {
	if kind == "swarms" {
		return []string{".yaml", ".yml"}
	}
	return []string{".md", ".txt", ""}
}
