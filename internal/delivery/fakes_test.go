package delivery

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
)

// fakeSession records writes and closes
type fakeSession struct {
	mu       sync.Mutex
	data     []byte
	writeErr error
	closeErr error
	closed   int
}

func (s *fakeSession) Write(offset int64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data = append(s.data[:offset], data...)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.closeErr
}

type fakeHandle struct {
	name      string
	session   *fakeSession
	writerErr error
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) CreateWriter(ctx context.Context) (WriteSession, error) {
	if h.writerErr != nil {
		return nil, h.writerErr
	}
	return h.session, nil
}

type fakePicker struct {
	handle FileHandle
	err    error
	opts   []SaveOptions
}

func (p *fakePicker) Pick(ctx context.Context, opts SaveOptions) (FileHandle, error) {
	p.opts = append(p.opts, opts)
	return p.handle, p.err
}

// fakeFilesystem is an in-memory sandbox
type fakeFilesystem struct {
	mu         sync.Mutex
	dirs       map[string]bool
	files      map[string]string
	encodings  map[string]Encoding
	mkdirCalls int
	mkdirErr   error
	writeErr   error
	noURI      bool
}

func newFakeFilesystem() *fakeFilesystem {
	return &fakeFilesystem{
		dirs:      make(map[string]bool),
		files:     make(map[string]string),
		encodings: make(map[string]Encoding),
	}
}

func (f *fakeFilesystem) key(path string, scope DirectoryScope) string {
	return string(scope) + ":" + path
}

func (f *fakeFilesystem) Stat(ctx context.Context, path string, scope DirectoryScope) (*FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := f.key(path, scope)
	if f.dirs[k] {
		return &FileInfo{Path: path, Scope: scope, IsDir: true, URI: "file:///" + path}, nil
	}
	if content, ok := f.files[k]; ok {
		info := &FileInfo{Path: path, Scope: scope, Size: int64(len(content))}
		if !f.noURI {
			info.URI = "file:///" + path
		}
		return info, nil
	}
	return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
}

func (f *fakeFilesystem) Mkdir(ctx context.Context, path string, scope DirectoryScope, recursive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mkdirCalls++
	if f.mkdirErr != nil {
		return f.mkdirErr
	}
	f.dirs[f.key(path, scope)] = true
	return nil
}

func (f *fakeFilesystem) WriteFile(ctx context.Context, path, data string, scope DirectoryScope, encoding Encoding) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	k := f.key(path, scope)
	f.files[k] = data
	f.encodings[k] = encoding
	return nil
}

type fakeSharer struct {
	mu    sync.Mutex
	calls []ShareOptions
	err   error
}

func (s *fakeSharer) Share(ctx context.Context, opts ShareOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, opts)
	return s.err
}
