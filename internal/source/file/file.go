package file

import (
	"context"

	"vendas/internal/core"
	"vendas/internal/loader"
	"vendas/internal/source"
)

var _ source.RecordSource = (*Source)(nil)

// Source reads the delimited sales file at Path, local or gs://.
type Source struct {
	Path    string
	Options loader.Options
}

func New(path string, opts loader.Options) *Source {
	return &Source{Path: path, Options: opts}
}

// Records loads the file. The file is opened and closed on every call.
func (s *Source) Records(ctx context.Context) (core.Table, error) {
	return loader.LoadFile(ctx, s.Path, s.Options)
}

func (s *Source) Name() string {
	return "file:" + s.Path
}
