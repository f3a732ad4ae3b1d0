// Package config loads the appsyncgen.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/appsyncgen/compiler"
	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/gen/manifest"
	"github.com/syssam/appsyncgen/compiler/load"
)

// FileNames are the project file names searched for, in order.
var FileNames = []string{"appsyncgen.yaml", "appsyncgen.yml"}

// Source kinds.
const (
	SourceFile    = "file"
	SourcePackage = "package"
)

type (
	// File is the content of a project file.
	File struct {
		Projects []*Project `yaml:"projects"`

		// dir is the directory relative paths are resolved in.
		dir string
	}

	// Project configures one schema build.
	Project struct {
		Name             string            `yaml:"name"`
		SchemaName       string            `yaml:"schemaName,omitempty"`
		Version          string            `yaml:"version,omitempty"`
		Source           Source            `yaml:"source"`
		Output           Output            `yaml:"output"`
		Scalars          map[string]string `yaml:"scalars,omitempty"`
		JSONScalar       string            `yaml:"jsonScalar,omitempty"`
		CheckConformance *bool             `yaml:"checkConformance,omitempty"`
		EagerReferences  bool              `yaml:"eagerReferences,omitempty"`
		Verify           bool              `yaml:"verify,omitempty"`
	}

	// Source selects the declaration source of a project.
	Source struct {
		Kind    string `yaml:"kind"`
		Path    string `yaml:"path,omitempty"`
		Pattern string `yaml:"pattern,omitempty"`
	}

	// Output are the artifact paths of a project.
	Output struct {
		SDL            string      `yaml:"sdl"`
		Manifest       string      `yaml:"manifest"`
		ManifestFormat string      `yaml:"manifestFormat,omitempty"`
		GoBindings     *GoBindings `yaml:"goBindings,omitempty"`
	}

	// GoBindings configures the Go bindings artifact.
	GoBindings struct {
		Path    string `yaml:"path"`
		Package string `yaml:"package"`
	}
)

// Error is a project file error.
type Error struct {
	Path    string
	Project string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("appsyncgen: ")
	if e.Path != "" {
		b.WriteString(e.Path + ": ")
	}
	if e.Project != "" {
		b.WriteString("project " + e.Project + ": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Find returns the first project file of dir, or "" if there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and validates a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	f, err := Parse(data, filepath.Dir(path))
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse decodes a project file. Relative paths are resolved in dir.
// Unknown keys are rejected.
func Parse(data []byte, dir string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	f := &File{dir: dir}
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Message: err.Error()}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Dir returns the directory relative paths are resolved in.
func (f *File) Dir() string {
	return f.dir
}

// Select returns the projects with the given names, or all projects when
// names is empty.
func (f *File) Select(names ...string) ([]*Project, error) {
	if len(names) == 0 {
		return f.Projects, nil
	}
	projects := make([]*Project, 0, len(names))
	for _, name := range names {
		p := f.Project(name)
		if p == nil {
			return nil, &Error{Project: name, Message: "not defined"}
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Project returns the named project, or nil.
func (f *File) Project(name string) *Project {
	for _, p := range f.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (f *File) validate() error {
	if len(f.Projects) == 0 {
		return &Error{Message: "no projects defined"}
	}
	seen := make(map[string]bool, len(f.Projects))
	for i, p := range f.Projects {
		if p == nil {
			return &Error{Message: fmt.Sprintf("project %d is empty", i)}
		}
		if p.Name == "" {
			return &Error{Message: fmt.Sprintf("project %d has no name", i)}
		}
		if seen[p.Name] {
			return &Error{Project: p.Name, Message: "defined twice"}
		}
		seen[p.Name] = true
		if err := p.validate(); err != nil {
			return &Error{Project: p.Name, Message: err.Error()}
		}
		p.resolve(f.dir)
	}
	return nil
}

func (p *Project) validate() error {
	switch p.Source.Kind {
	case SourceFile:
		if p.Source.Path == "" {
			return errors.New("file source requires a path")
		}
	case SourcePackage:
	default:
		return fmt.Errorf("unknown source kind %q", p.Source.Kind)
	}
	if p.Output.SDL == "" && p.Output.Manifest == "" && p.Output.GoBindings == nil {
		return errors.New("no outputs configured")
	}
	if _, err := manifest.ParseFormat(p.Output.ManifestFormat); err != nil {
		return err
	}
	if b := p.Output.GoBindings; b != nil && (b.Path == "" || b.Package == "") {
		return errors.New("goBindings requires a path and a package")
	}
	if _, err := gen.NewConfig(p.GenOptions()...); err != nil {
		return err
	}
	return nil
}

func (p *Project) resolve(dir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	if p.Source.Kind == SourcePackage && p.Source.Path == "" {
		p.Source.Path = dir
	}
	p.Source.Path = abs(p.Source.Path)
	p.Output.SDL = abs(p.Output.SDL)
	p.Output.Manifest = abs(p.Output.Manifest)
	if p.Output.GoBindings != nil {
		p.Output.GoBindings.Path = abs(p.Output.GoBindings.Path)
	}
}

// GenOptions returns the builder options of the project.
func (p *Project) GenOptions() []gen.Option {
	var opts []gen.Option
	if len(p.Scalars) > 0 {
		opts = append(opts, gen.WithScalars(p.Scalars))
	}
	if p.JSONScalar != "" {
		opts = append(opts, gen.WithJSONScalar(p.JSONScalar))
	}
	if p.CheckConformance != nil {
		opts = append(opts, gen.WithConformance(*p.CheckConformance))
	}
	if p.EagerReferences {
		opts = append(opts, gen.WithEagerReferences(true))
	}
	return opts
}

// CompileOptions returns the compilation options of the project. verify
// forces verification on.
func (p *Project) CompileOptions(verify bool) []compiler.Option {
	opts := []compiler.Option{
		compiler.WithGenOptions(p.GenOptions()...),
		compiler.WithVerify(verify || p.Verify),
		compiler.WithManifestFormat(manifest.Format(p.Output.ManifestFormat)),
	}
	if p.Output.GoBindings != nil {
		opts = append(opts, compiler.WithGoBindings(p.Output.GoBindings.Package))
	}
	return opts
}

// Outputs returns the artifact paths of the project.
func (p *Project) Outputs() compiler.Outputs {
	out := compiler.Outputs{SDL: p.Output.SDL, Manifest: p.Output.Manifest}
	if p.Output.GoBindings != nil {
		out.GoBindings = p.Output.GoBindings.Path
	}
	return out
}

// DeclarationSource returns the source of the project declarations.
// Schema name and version of the project override those of the source.
func (p *Project) DeclarationSource() load.Source {
	var src load.Source
	switch p.Source.Kind {
	case SourcePackage:
		pattern := p.Source.Pattern
		if pattern == "" {
			pattern = "."
		}
		src = &load.PackageSource{Name: p.SchemaName, Version: p.Version, Dir: p.Source.Path, Patterns: []string{pattern}}
	default:
		src = load.FromFile(p.Source.Path)
	}
	return &namedSource{Source: src, name: p.SchemaName, version: p.Version}
}

// WatchPaths returns the files and directories whose changes invalidate
// the project artifacts.
func (p *Project) WatchPaths() []string {
	if p.Source.Kind == SourceFile {
		return []string{p.Source.Path}
	}
	dir := p.Source.Path
	if rest, ok := strings.CutPrefix(p.Source.Pattern, "./"); ok {
		dir = filepath.Join(dir, strings.TrimSuffix(strings.TrimSuffix(rest, "..."), "/"))
	}
	return []string{filepath.Clean(dir)}
}

// Recursive reports whether the package pattern matches subdirectories.
func (p *Project) Recursive() bool {
	return p.Source.Kind == SourcePackage && strings.HasSuffix(p.Source.Pattern, "...")
}

type namedSource struct {
	load.Source
	name, version string
}

func (s *namedSource) Snapshot() (*load.Snapshot, error) {
	snap, err := s.Source.Snapshot()
	if err != nil {
		return nil, err
	}
	if s.name != "" {
		snap.Name = s.name
	}
	if s.version != "" {
		snap.Version = s.version
	}
	return snap, nil
}
