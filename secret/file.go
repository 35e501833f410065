package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider resolves references to file contents, for secrets
// mounted by container runtimes: secretref:file:/run/secrets/api_key.
type FileProvider struct {
	// baseDir, when set, anchors relative refs.
	baseDir string
}

// NewFileProvider creates a file provider. baseDir anchors relative
// references; empty means refs must be absolute or relative to the
// working directory.
func NewFileProvider(baseDir string) *FileProvider {
	return &FileProvider{baseDir: baseDir}
}

// Name returns "file".
func (*FileProvider) Name() string {
	return "file"
}

// Resolve reads the referenced file. Surrounding whitespace is
// trimmed, since mounted secrets commonly end with a newline.
func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path := strings.TrimSpace(ref)
	if path == "" {
		return "", fmt.Errorf("file secret ref is empty")
	}
	if p.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config, not request input.
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file %q is empty", path)
	}
	return value, nil
}

// Close is a no-op.
func (*FileProvider) Close() error {
	return nil
}

// Ensure FileProvider implements Provider
var _ Provider = (*FileProvider)(nil)

func init() {
	_ = DefaultRegistry.Register("file", func(cfg map[string]any) (Provider, error) {
		base, _ := cfg["base_dir"].(string)
		return NewFileProvider(base), nil
	})
}
