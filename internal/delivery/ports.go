package delivery

import "context"

// DirectoryScope selects the root a sandboxed path is relative to
type DirectoryScope string

const (
	ScopeDocuments DirectoryScope = "DOCUMENTS"
	ScopeData      DirectoryScope = "DATA"
	ScopeCache     DirectoryScope = "CACHE"
)

// Encoding of text written to the sandbox
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"
	EncodingBase64 Encoding = "base64"
)

// FileInfo is the result of a sandbox stat
type FileInfo struct {
	Path  string
	Scope DirectoryScope
	URI   string
	Size  int64
	IsDir bool
}

// Filesystem is the app-sandboxed filesystem
type Filesystem interface {
	// Stat returns an error wrapping fs.ErrNotExist when path is absent
	Stat(ctx context.Context, path string, scope DirectoryScope) (*FileInfo, error)
	Mkdir(ctx context.Context, path string, scope DirectoryScope, recursive bool) error
	WriteFile(ctx context.Context, path, data string, scope DirectoryScope, encoding Encoding) error
}

// ShareOptions configures the platform share sheet
type ShareOptions struct {
	Subject string
	Files   []string
	Title   string
}

// Sharer opens the platform share sheet
type Sharer interface {
	Share(ctx context.Context, opts ShareOptions) error
}

// SaveOptions describes the file the user is asked to pick
type SaveOptions struct {
	SuggestedName string
	Description   string
	Extensions    []string
	MIMETypes     []string
}

// FileHandlePicker asks the user for a writable file.
// A user cancellation returns ErrHandleCancelled.
type FileHandlePicker interface {
	Pick(ctx context.Context, opts SaveOptions) (FileHandle, error)
}

// FileHandle is a user-granted file
type FileHandle interface {
	Name() string
	CreateWriter(ctx context.Context) (WriteSession, error)
}

// WriteSession is a scoped write on a FileHandle. Close must always be called.
type WriteSession interface {
	Write(offset int64, data []byte) error
	Close() error
}

// Trigger retrieves a transient download link
type Trigger interface {
	Trigger(ctx context.Context, link *Link) error
}

// TriggerFunc adapts a function to Trigger
type TriggerFunc func(ctx context.Context, link *Link) error

// Trigger calls f
func (f TriggerFunc) Trigger(ctx context.Context, link *Link) error {
	return f(ctx, link)
}
