package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file FindManifest looks for.
const ManifestName = "package.yml"

var ErrManifestNotFound = errors.New("manifest: package.yml not found")

// Manifest represents the parsed contents of package.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	Main         string
	Runtime      RuntimeConfig
	Dependencies map[string]*DependencySpec
}

// RuntimeConfig carries the interpreter settings of a package.
type RuntimeConfig struct {
	Executor     ExecutorKind
	DrainTasks   bool
	MaxFetches   int
	FetchTimeout time.Duration
	LogLevel     string
}

// ExecutorKind selects the task executor implementation.
type ExecutorKind string

const (
	ExecutorGoroutine ExecutorKind = "goroutine"
	ExecutorSerial    ExecutorKind = "serial"
)

// IsValid reports whether the executor kind is recognised.
func (k ExecutorKind) IsValid() bool {
	switch k {
	case ExecutorGoroutine, ExecutorSerial:
		return true
	default:
		return false
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// DependencySpec describes a git dependency in the manifest. At most one of
// Rev, Tag and Branch is set; none means the remote HEAD.
type DependencySpec struct {
	Git    string
	Rev    string
	Tag    string
	Branch string
}

// Revision returns the pinned descriptor, or "" for HEAD.
func (d *DependencySpec) Revision() string {
	switch {
	case d.Rev != "":
		return d.Rev
	case d.Tag != "":
		return d.Tag
	default:
		return d.Branch
	}
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// NewManifest returns the manifest `nikl init` writes for a new package.
func NewManifest(name string) *Manifest {
	return &Manifest{
		Name:    sanitizeSegment(name),
		Version: "0.1.0",
		Main:    filepath.ToSlash(filepath.Join("src", "main.nk")),
		Runtime: RuntimeConfig{
			Executor: ExecutorGoroutine,
			LogLevel: "warn",
		},
		Dependencies: map[string]*DependencySpec{},
	}
}

// Dir is the package root, the directory holding package.yml.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// MainPath resolves the entry script against the package root.
func (m *Manifest) MainPath() string {
	if filepath.IsAbs(m.Main) {
		return m.Main
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(m.Main))
}

// DependencyNames returns dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindManifest walks up from dir until it finds package.yml.
func FindManifest(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrManifestNotFound
		}
		abs = parent
	}
}

// LoadManifest parses package.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest, issues := raw.toManifest(absPath)
	issues = append(issues, manifest.validate()...)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return manifest, nil
}

// WriteManifest serialises the manifest to path.
func WriteManifest(m *Manifest, path string) error {
	if m == nil {
		return fmt.Errorf("manifest: nil manifest")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	data := m.toDisk()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("manifest: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("manifest: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", abs, err)
	}
	m.Path = abs
	return nil
}

func (m *Manifest) validate() []string {
	var issues []string
	if m.Name == "" {
		issues = append(issues, "name must be provided")
	}
	if m.Main != "" && !strings.HasSuffix(m.Main, ".nk") {
		issues = append(issues, fmt.Sprintf("main %q must be a .nk file", m.Main))
	}
	if !m.Runtime.Executor.IsValid() {
		issues = append(issues, fmt.Sprintf("runtime.executor %q must be goroutine or serial", m.Runtime.Executor))
	}
	if m.Runtime.MaxFetches < 0 {
		issues = append(issues, "runtime.max_fetches must not be negative")
	}
	if m.Runtime.FetchTimeout < 0 {
		issues = append(issues, "runtime.fetch_timeout must not be negative")
	}
	if m.Runtime.LogLevel != "" && !logLevels[m.Runtime.LogLevel] {
		issues = append(issues, fmt.Sprintf("runtime.log_level %q must be one of debug, info, warn, error", m.Runtime.LogLevel))
	}
	for _, name := range m.DependencyNames() {
		for _, issue := range m.Dependencies[name].validate() {
			issues = append(issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	return issues
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d.Git == "" {
		errs = append(errs, "git URL required")
	}
	pins := 0
	for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
		if pin != "" {
			pins++
		}
	}
	if pins > 1 {
		errs = append(errs, "specify at most one of rev, tag, or branch")
	}
	return errs
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version,omitempty"`
	Main         string        `yaml:"main,omitempty"`
	Runtime      runtimeYAML   `yaml:"runtime,omitempty"`
	Dependencies dependencyMap `yaml:"dependencies,omitempty"`
}

type runtimeYAML struct {
	Executor     string `yaml:"executor,omitempty"`
	DrainTasks   bool   `yaml:"drain_tasks,omitempty"`
	MaxFetches   int    `yaml:"max_fetches,omitempty"`
	FetchTimeout string `yaml:"fetch_timeout,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
}

type dependencyYAML struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

type dependencyMap map[string]*DependencySpec

func (mf manifestFile) toManifest(path string) (*Manifest, []string) {
	var issues []string
	result := &Manifest{
		Path:    path,
		Name:    sanitizeSegment(mf.Name),
		Version: strings.TrimSpace(mf.Version),
		Main:    strings.TrimSpace(mf.Main),
		Runtime: RuntimeConfig{
			Executor:   ExecutorKind(strings.ToLower(strings.TrimSpace(mf.Runtime.Executor))),
			DrainTasks: mf.Runtime.DrainTasks,
			MaxFetches: mf.Runtime.MaxFetches,
			LogLevel:   strings.ToLower(strings.TrimSpace(mf.Runtime.LogLevel)),
		},
		Dependencies: make(map[string]*DependencySpec, len(mf.Dependencies)),
	}
	if result.Runtime.Executor == "" {
		result.Runtime.Executor = ExecutorGoroutine
	}
	if raw := strings.TrimSpace(mf.Runtime.FetchTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("runtime.fetch_timeout %q is not a duration", raw))
		}
		result.Runtime.FetchTimeout = d
	}
	for name, dep := range mf.Dependencies {
		copy := *dep
		result.Dependencies[name] = &copy
	}
	return result, issues
}

func (m *Manifest) toDisk() manifestFile {
	out := manifestFile{
		Name:    m.Name,
		Version: m.Version,
		Main:    m.Main,
		Runtime: runtimeYAML{
			Executor:   string(m.Runtime.Executor),
			DrainTasks: m.Runtime.DrainTasks,
			MaxFetches: m.Runtime.MaxFetches,
			LogLevel:   m.Runtime.LogLevel,
		},
		Dependencies: make(dependencyMap, len(m.Dependencies)),
	}
	if m.Runtime.FetchTimeout > 0 {
		out.Runtime.FetchTimeout = m.Runtime.FetchTimeout.String()
	}
	for name, dep := range m.Dependencies {
		out.Dependencies[name] = dep
	}
	return out
}

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = sanitizeSegment(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = &dep
	}
	*dm = result
	return nil
}

func (dm dependencyMap) MarshalYAML() (any, error) {
	out := make(map[string]dependencyYAML, len(dm))
	for name, dep := range dm {
		out[name] = dependencyYAML{Git: dep.Git, Rev: dep.Rev, Tag: dep.Tag, Branch: dep.Branch}
	}
	return out, nil
}

func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		// Shorthand: a bare string is the git URL.
		*d = DependencySpec{Git: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw dependencyYAML
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}
