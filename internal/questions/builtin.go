package questions

import (
	"context"
	"embed"
	"io/fs"
)

//go:embed builtin/*.json
var builtinFiles embed.FS

// Builtin returns a repository holding the question bank shipped with the
// binary.
func Builtin(ctx context.Context, opts ...Option) (*Repository, error) {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		return nil, err
	}
	r := NewRepository(opts...)
	if err := r.LoadFS(ctx, sub); err != nil {
		return nil, err
	}
	return r, nil
}
