package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/i2cbase"
)

// Entry is one raw metadata document provided by a Source.
type Entry struct {
	// Name identifies the document within its source, e.g. a file path.
	// Its extension selects JSON or YAML decoding.
	Name string
	Data []byte
}

// Source provides metadata documents.
type Source interface {
	// Name identifies the source in reports and events.
	Name() string

	// Documents returns the current documents of the source.
	Documents(ctx context.Context) ([]Entry, error)
}

// FSSource reads every *.json, *.yaml and *.yml file in a file system tree.
type FSSource struct {
	name string
	fsys fs.FS
}

// NewFSSource creates a source over fsys.
func NewFSSource(name string, fsys fs.FS) *FSSource {
	return &FSSource{name: name, fsys: fsys}
}

// NewDirSource creates a source over a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(dir, os.DirFS(dir))
}

// Builtin returns a source serving the metadata documents compiled into
// this module.
func Builtin() *FSSource {
	return NewFSSource("builtin", i2cbase.SpecFS)
}

// Name returns the source name.
func (s *FSSource) Name() string {
	return s.name
}

// Documents walks the file system and returns the metadata documents in
// lexical path order.
func (s *FSSource) Documents(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !IsMetadataFile(p) {
			return nil
		}

		data, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Name: path.Join(s.name, p),
			Data: data,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", s.name, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// IsMetadataFile reports whether a file name looks like a metadata
// document.
func IsMetadataFile(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(path.Ext(base)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
