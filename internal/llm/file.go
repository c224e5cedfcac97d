package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/vibecheck/internal/model"
)

// FileProvider serves research from JSON documents on disk.
// For carrier c and view v it reads the first existing file of
// c_v.json, c.json, v.json in its directory.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider that reads from dir
func NewFileProvider(dir string) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("research fixture dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("research fixture dir %s is not a directory", dir)
	}
	return &FileProvider{dir: dir}, nil
}

// Name returns the provider name
func (p *FileProvider) Name() string {
	return "file"
}

// Research returns the stored document for the request
func (p *FileProvider) Research(ctx context.Context, req ResearchRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, name := range p.candidates(req) {
		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read research %s: %w", name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: no research for carrier %q view %q in %s", model.ErrMalformedResearch, req.Carrier.ID, req.View, p.dir)
}

func (p *FileProvider) candidates(req ResearchRequest) []string {
	var names []string
	if req.Carrier.ID != "" && req.View != "" {
		names = append(names, fmt.Sprintf("%s_%s.json", req.Carrier.ID, req.View))
	}
	if req.Carrier.ID != "" {
		names = append(names, req.Carrier.ID+".json")
	}
	if req.View != "" {
		names = append(names, string(req.View)+".json")
	}
	return names
}
