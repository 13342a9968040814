package main

import (
	"context"
	"fmt"

	"dagger/fair/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// lintOpts layers golangci-lint on top of goContainer().
func (f *Fair) lintOpts() dagger.GolangcilintOpts {
	base := f.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		})

	return dagger.GolangcilintOpts{
		BaseCtr: base,
		Config:  f.Source.File(".golangci.yml"),
	}
}

// CheckLint runs golangci-lint against the fair source without applying fixes.
func (f *Fair) CheckLint(ctx context.Context) (string, error) {
	return dag.Golangcilint(f.Source, f.lintOpts()).Check(ctx)
}

// FixLint runs golangci-lint against the fair source with --fix, applying
// automatic fixes where possible, and returns the modified source directory.
func (f *Fair) FixLint(ctx context.Context) *dagger.Directory {
	return dag.Golangcilint(f.Source, f.lintOpts()).Lint()
}
