package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nathoo/scenecore/engine/save"

// ErrNoSave is returned when a named save does not exist.
var ErrNoSave = errors.New("save not found")

// Repository stores saves as files in a directory, one file per slot.
type Repository struct {
	dir    string
	format Format
	tracer trace.Tracer
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) RepositoryOption {
	return func(r *Repository) { r.tracer = tp.Tracer(tracerName) }
}

// NewRepository returns a repository rooted at dir.
func NewRepository(dir string, format Format, opts ...RepositoryOption) *Repository {
	r := &Repository{dir: dir, format: format, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the save directory.
func (r *Repository) Dir() string { return r.dir }

func (r *Repository) path(name string) string {
	return filepath.Join(r.dir, name+r.format.Ext())
}

// Exist reports whether a save with the given name exists.
func (r *Repository) Exist(ctx context.Context, name string) bool {
	_, err := os.Stat(r.path(name))
	return err == nil
}

// Save writes sd under name.
func (r *Repository) Save(ctx context.Context, name string, sd *SaveData) (err error) {
	_, span := r.tracer.Start(ctx, "save.Save")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("save.name", name),
		attribute.String("save.id", sd.ID),
		attribute.String("save.format", string(r.format)),
	)

	if err := validName(name); err != nil {
		return err
	}
	data, err := Encode(sd, r.format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	tmp := r.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.Rename(tmp, r.path(name)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	span.SetAttributes(attribute.Int("save.bytes", len(data)))
	return nil
}

// Load reads the save stored under name.
func (r *Repository) Load(ctx context.Context, name string) (sd *SaveData, err error) {
	_, span := r.tracer.Start(ctx, "save.Load")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("save.name", name))

	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return Decode(data, r.format)
}

// List returns the names of the stored saves, sorted.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	ext := r.format.Ext()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid save name %q", name)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
