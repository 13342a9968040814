package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/fair/internal/dagger"
)

// Build compiles the fair binary for linux and returns a directory of
// linux/<arch>/fair artifacts.
func (f *Fair) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()

	// go-sqlite3 needs cgo, so each arch gets its own C cross compiler.
	compilers := map[string]string{
		"amd64": "x86_64-linux-gnu-gcc",
		"arm64": "aarch64-linux-gnu-gcc",
	}

	base := f.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-x86-64-linux-gnu", "gcc-aarch64-linux-gnu"})

	for _, goarch := range []string{"amd64", "arm64"} {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := base.
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", goarch).
			WithEnvVariable("CC", compilers[goarch]).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/fair"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned binaries with embedded version info
func (f *Fair) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/burnes-center/fair/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/burnes-center/fair/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/burnes-center/fair/pkg/utils.Buildtime=%s'", time.Now().UTC().Format(time.RFC3339)),
	}

	return f.Build(ctx, strings.Join(ldflags, " "))
}
