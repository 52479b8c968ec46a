package deptree

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	domainerrors "orbit/internal/core/errors"
)

// DefaultCommand lists every non-dev dependency with a numeric depth prefix,
// repeating shared subtrees so the listing folds into a plain tree.
var DefaultCommand = []string{"cargo", "tree", "-e=no-dev", "--prefix", "depth", "--no-dedupe"}

// Source produces a dependency listing, either from a file or by running a
// command in Dir.
type Source struct {
	Command []string
	Dir     string
	File    string
}

func (s Source) Read(ctx context.Context) (string, error) {
	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return "", domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeSource, "read dependency listing"),
				domainerrors.CtxPath, s.File,
			)
		}
		return string(data), nil
	}

	command := s.Command
	if len(command) == 0 {
		command = DefaultCommand
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = s.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		wrapped := domainerrors.Wrap(err, domainerrors.CodeSource, "dependency listing command failed")
		wrapped = domainerrors.AddContext(wrapped, domainerrors.CtxCommand, strings.Join(command, " "))
		if msg := lastLine(stderr.String()); msg != "" {
			wrapped = domainerrors.AddContext(wrapped, "stderr", msg)
		}
		return "", wrapped
	}
	return stdout.String(), nil
}

// Load reads the listing and parses it.
func (s Source) Load(ctx context.Context, opts Options) (*Tree, error) {
	raw, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(raw, opts)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
