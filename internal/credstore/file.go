package credstore

import (
	"os"
	"path/filepath"
	"strings"
)

// File stores the bearer token in a single file, the CLI analog of the
// mobile app's secure storage slot.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Get() (string, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", ErrNoCredential
	}
	return tok, nil
}

func (f *File) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token+"\n"), 0o600)
}

func (f *File) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
