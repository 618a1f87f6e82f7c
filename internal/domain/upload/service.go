package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
)

const UploadsBaseDir = "./uploads"

// Registrar is the registry surface the upload service needs.
type Registrar interface {
	Register(path string, kind registry.Kind, opts ...registry.Option) (string, error)
	GetKind(id string, kind registry.Kind) (registry.FileEntry, error)
}

// Service stores files sent by remote clients and registers them as
// uploaded entries. Stored names are "<uuid>_<sanitized name>" so two
// uploads of the same name never collide.
type Service struct {
	registry Registrar
	baseDir  string
	activity activity.Sink
}

func NewService(reg Registrar, baseDir string, sink activity.Sink) (*Service, error) {
	if baseDir == "" {
		baseDir = UploadsBaseDir
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Service{registry: reg, baseDir: abs, activity: sink}, nil
}

func (s *Service) BaseDir() string { return s.baseDir }

// Save writes the multipart file to disk and registers it. uploader is the
// client address recorded on the entry.
func (s *Service) Save(ctx context.Context, fileHeader *multipart.FileHeader, uploader string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("%w: No file provided", ErrRejected)
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		return "", fmt.Errorf("%w: No file selected", ErrRejected)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open part: %v", ErrStoreFailed, err)
	}
	defer src.Close()

	return s.store(ctx, src, fileHeader.Filename, uploader)
}

func (s *Service) store(ctx context.Context, src io.Reader, filename, uploader string) (string, error) {
	name := SanitizeName(filename)
	absPath := filepath.Join(s.baseDir, uuid.NewString()+"_"+name)

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if _, err := io.Copy(dst, &ctxReader{ctx: ctx, r: src}); err != nil {
		dst.Close()
		_ = os.Remove(absPath)
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(absPath)
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	id, err := s.registry.Register(absPath, registry.KindUploaded,
		registry.WithDisplayName(name),
		registry.WithUploader(uploader),
	)
	if err != nil {
		_ = os.Remove(absPath)
		return "", err
	}

	log.Printf("upload_stored id=%s name=%q uploader=%s", id, name, uploader)
	if s.activity != nil {
		s.activity.Append(fmt.Sprintf("File uploaded: %s (from %s)", name, uploader))
	}
	return id, nil
}

// Promote offers an uploaded file for download as a new shared entry with
// its own id. The uploaded entry is left in place.
func (s *Service) Promote(uploadID string) (string, error) {
	e, err := s.registry.GetKind(uploadID, registry.KindUploaded)
	if err != nil {
		return "", err
	}
	id, err := s.registry.Register(e.Path, registry.KindShared, registry.WithDisplayName(e.DisplayName))
	if err != nil {
		return "", err
	}
	if s.activity != nil {
		s.activity.Append("Uploaded file shared: " + e.DisplayName)
	}
	return id, nil
}

// SanitizeName reduces a client-supplied file name to a safe base name made
// of ASCII letters, digits, '.', '-' and '_'.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	if len(out) > 120 {
		ext := filepath.Ext(out)
		if len(ext) > 20 {
			ext = ""
		}
		out = out[:120-len(ext)] + ext
	}
	if out == "" {
		return "file"
	}
	return out
}

// ctxReader stops a copy once the request context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
