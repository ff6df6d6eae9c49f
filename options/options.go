package options

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/goshaderquad/resource"
	"github.com/richinsley/goshaderquad/shader"
)

const (
	DefaultSize      = 500
	DefaultSchema    = "indexed"
	DefaultLogFormat = "console"
)

// QuadOptions holds the command line configuration. Fields are pointers so they can be
// registered directly on a flag.FlagSet.
type QuadOptions struct {
	Config     *string
	Help       *bool
	Base       *string // URL or directory relative shader locations resolve against
	Vertex     *string // vertex shader location; empty picks the default for Base
	Fragment   *string // fragment shader location; empty picks the default for Base
	Schema     *string // "indexed" or "arrays"
	Width      *int
	Height     *int
	Headless   *bool
	Snapshot   *string // write the drawn frame to this image file
	FFMPEGPath *string
	LogFormat  *string // "console" or "json"
	Verbose    *bool
}

// fileOptions is the YAML form of QuadOptions. Absent keys leave the flag default alone.
type fileOptions struct {
	Base       *string `yaml:"base"`
	Vertex     *string `yaml:"vertex"`
	Fragment   *string `yaml:"fragment"`
	Schema     *string `yaml:"schema"`
	Width      *int    `yaml:"width"`
	Height     *int    `yaml:"height"`
	Headless   *bool   `yaml:"headless"`
	Snapshot   *string `yaml:"snapshot"`
	FFMPEGPath *string `yaml:"ffmpeg"`
	LogFormat  *string `yaml:"log_format"`
	Verbose    *bool   `yaml:"verbose"`
}

// Register defines every option on fs.
func Register(fs *flag.FlagSet) *QuadOptions {
	return &QuadOptions{
		Config:     fs.String("config", "", "YAML file with default option values"),
		Help:       fs.Bool("help", false, "Show help message"),
		Base:       fs.String("base", "", "Base URL or directory for relative shader locations"),
		Vertex:     fs.String("vertex", "", "Vertex shader location (default depends on -base)"),
		Fragment:   fs.String("fragment", "", "Fragment shader location (default depends on -base)"),
		Schema:     fs.String("schema", DefaultSchema, "Vertex schema: indexed or arrays"),
		Width:      fs.Int("width", DefaultSize, "Width of the surface"),
		Height:     fs.Int("height", DefaultSize, "Height of the surface"),
		Headless:   fs.Bool("headless", false, "Render to an EGL pbuffer instead of a window"),
		Snapshot:   fs.String("snapshot", "", "Write the drawn frame to this image file"),
		FFMPEGPath: fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		LogFormat:  fs.String("log-format", DefaultLogFormat, "Log format: console or json"),
		Verbose:    fs.Bool("v", false, "Enable debug logging"),
	}
}

// Parse registers the options on fs, parses args and then fills every option that was
// not given on the command line from the -config file, if any.
func Parse(fs *flag.FlagSet, args []string) (*QuadOptions, error) {
	opts := Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *opts.Config != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := opts.loadFile(*opts.Config, set); err != nil {
			return nil, err
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *QuadOptions) loadFile(path string, set map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	apply(set, "base", o.Base, f.Base)
	apply(set, "vertex", o.Vertex, f.Vertex)
	apply(set, "fragment", o.Fragment, f.Fragment)
	apply(set, "schema", o.Schema, f.Schema)
	apply(set, "width", o.Width, f.Width)
	apply(set, "height", o.Height, f.Height)
	apply(set, "headless", o.Headless, f.Headless)
	apply(set, "snapshot", o.Snapshot, f.Snapshot)
	apply(set, "ffmpeg", o.FFMPEGPath, f.FFMPEGPath)
	apply(set, "log-format", o.LogFormat, f.LogFormat)
	apply(set, "v", o.Verbose, f.Verbose)
	return nil
}

// apply copies a file value into dst unless the flag was set explicitly.
func apply[T any](set map[string]bool, name string, dst, src *T) {
	if src != nil && !set[name] {
		*dst = *src
	}
}

// Validate checks values that flag parsing cannot.
func (o *QuadOptions) Validate() error {
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", *o.Width, *o.Height)
	}
	if _, err := shader.SchemaByName(*o.Schema); err != nil {
		return err
	}
	switch *o.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", *o.LogFormat)
	}
	return nil
}

// Requests returns the vertex and fragment requests. Without explicit locations, a
// remote base uses the web demo's layout and anything else the bundled files.
func (o *QuadOptions) Requests() []resource.Request {
	vertex, fragment := shader.LocalVertexLocation, shader.LocalFragmentLocation
	if resource.IsRemote(*o.Base) {
		vertex, fragment = shader.WebVertexLocation, shader.WebFragmentLocation
	}
	if *o.Vertex != "" {
		vertex = *o.Vertex
	}
	if *o.Fragment != "" {
		fragment = *o.Fragment
	}
	return []resource.Request{
		{Name: shader.VertexName, Location: vertex},
		{Name: shader.FragmentName, Location: fragment},
	}
}
