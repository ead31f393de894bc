// Package wrapper generates runtime launcher scripts from a base template
// and a set of feature blocks.
//
// Each Block is self-contained: its help lines, variable defaults, argument
// cases, validation snippets and staging commands are emitted together when
// the block's feature condition holds, and none of them is emitted
// otherwise.
package wrapper

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/ukri-bench/varbuild/pkgs/fsutil"
	"mvdan.cc/sh/v3/syntax"
)

// Mode is the permission of generated scripts.
const Mode fs.FileMode = 0o755

// Block is the contribution of one optional runtime feature.
type Block struct {
	Feature string // feature tag; empty means always included
	Negate  bool   // include when the feature is disabled instead

	Help     []string // lines of the help text
	Defaults []string // variable initialisations
	Cases    []string // argument parsing case arms
	Checks   []string // validation run after argument parsing
	Stage    []string // commands run once the run directory exists
}

// Enabled reports whether the block is part of a script with features.
func (b Block) Enabled(features map[string]bool) bool {
	if b.Feature == "" {
		return true
	}
	return features[b.Feature] != b.Negate
}

// Spec describes one wrapper script.
type Spec struct {
	Name     string // used in error messages
	Template string // base template, see Data
	Prefix   string // install prefix baked into the script
	Features map[string]bool
	Blocks   []Block
}

// Data is what the base template is executed with. Every section holds the
// lines of the enabled blocks, in block order.
type Data struct {
	Prefix   string
	Help     []string
	Defaults []string
	Cases    []string
	Checks   []string
	Stage    []string
}

var funcs = template.FuncMap{
	"quote": func(s string) (string, error) {
		return syntax.Quote(s, syntax.LangBash)
	},
}

// Render produces the script text and the mode it must be installed with.
// The same Spec always renders the same bytes. The result is parsed as bash
// before being returned.
func Render(spec Spec) ([]byte, fs.FileMode, error) {
	tmpl, err := template.New(spec.Name).Funcs(funcs).Parse(spec.Template)
	if err != nil {
		return nil, 0, fmt.Errorf("wrapper %s: parsing template: %w", spec.Name, err)
	}

	data := Data{Prefix: spec.Prefix}
	for _, b := range spec.Blocks {
		if !b.Enabled(spec.Features) {
			continue
		}
		data.Help = append(data.Help, b.Help...)
		data.Defaults = append(data.Defaults, b.Defaults...)
		data.Cases = append(data.Cases, b.Cases...)
		data.Checks = append(data.Checks, b.Checks...)
		data.Stage = append(data.Stage, b.Stage...)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, 0, fmt.Errorf("wrapper %s: executing template: %w", spec.Name, err)
	}
	if err := Validate(spec.Name, buf.Bytes()); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), Mode, nil
}

// Validate parses script as bash.
func Validate(name string, script []byte) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(bytes.NewReader(script), name); err != nil {
		return fmt.Errorf("wrapper %s: generated script is not valid bash: %w", name, err)
	}
	return nil
}

// Write renders spec and writes it atomically to path.
func Write(path string, spec Spec) error {
	data, mode, err := Render(spec)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, mode)
}

// Lines joins lines with newlines; handy for building multi-line case arms.
func Lines(lines ...string) string {
	return strings.Join(lines, "\n")
}
