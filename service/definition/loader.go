package definition

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/samrum/doorflow/model"
)

// Loader reads declarative definition documents (YAML) from any location
// the afs virtual file system can reach (file, mem, s3, gs, ...).
type Loader struct {
	fs afs.Service
}

// NewLoader creates a loader backed by the default afs service.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// Load downloads and decodes a definition document.
func (l *Loader) Load(ctx context.Context, URL string) (*model.Definition, error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition from %s: %w", URL, err)
	}
	return l.Decode(data)
}

// Decode decodes a YAML definition document.
func (l *Loader) Decode(data []byte) (*model.Definition, error) {
	def := &model.Definition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return def, nil
}

// LoadAndRegister loads a definition document and registers it.
func (s *Service) LoadAndRegister(ctx context.Context, loader *Loader, URL string) (*Handle, error) {
	def, err := loader.Load(ctx, URL)
	if err != nil {
		return nil, err
	}
	return s.Register(def)
}
