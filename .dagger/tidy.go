package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dagger/fair/internal/dagger"
)

// CheckGoModTidy fails when go.mod or go.sum drift from what the imports
// need, or when a downloaded module no longer matches its go.sum hash.
//
// +check
func (f *Fair) CheckGoModTidy(ctx context.Context) (string, error) {
	steps := []struct {
		name string
		args []string
		hint string
	}{
		{"tidy", []string{"go", "mod", "tidy", "-diff"}, "run 'go mod tidy' and commit the result"},
		{"verify", []string{"go", "mod", "verify"}, "a cached module was modified; clear the module cache"},
	}

	var report []string
	for _, s := range steps {
		out, err := f.goContainer().WithExec(s.args).Stdout(ctx)

		var e *dagger.ExecError
		switch {
		case errors.As(err, &e):
			return "", fmt.Errorf("go mod %s failed: %s\n\n%s%s", s.name, s.hint, e.Stdout, e.Stderr)
		case err != nil:
			return "", fmt.Errorf("go mod %s: %w", s.name, err)
		}
		if out = strings.TrimSpace(out); out != "" {
			report = append(report, out)
		}
	}

	return strings.Join(append([]string{"go.mod and go.sum are tidy"}, report...), "\n"), nil
}
