package project

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// RawFile is a file handed over by the presentation layer before encoding.
type RawFile interface {
	Name() string
	MimeType() string
	LastModified() *int64
	Open() (io.ReadCloser, error)
}

// BytesFile is an in-memory RawFile.
type BytesFile struct {
	Filename    string
	ContentType string
	ModifiedAt  *int64
	Content     []byte
}

func (f BytesFile) Name() string         { return f.Filename }
func (f BytesFile) MimeType() string     { return f.ContentType }
func (f BytesFile) LastModified() *int64 { return f.ModifiedAt }

func (f BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}

// LocalFile is a RawFile read from disk.
type LocalFile struct {
	path     string
	mimeType string
	modified int64
}

// NewLocalFile stats path and derives the mime type from its extension.
func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrInvalidInput)
	}
	return &LocalFile{
		path:     path,
		mimeType: mime.TypeByExtension(filepath.Ext(path)),
		modified: info.ModTime().UnixMilli(),
	}, nil
}

func (f *LocalFile) Name() string     { return filepath.Base(f.path) }
func (f *LocalFile) MimeType() string { return f.mimeType }

func (f *LocalFile) LastModified() *int64 {
	modified := f.modified
	return &modified
}

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
