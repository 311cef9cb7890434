// Package files stores uploaded files on the local filesystem under the
// configured uploads directory, grouped by kind (assignments, submissions).
package files

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Upload kinds
const (
	KindAssignments = "assignments"
	KindSubmissions = "submissions"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrTypeNotAllowed  = errors.New("file type is not allowed")
	ErrUnknownKind     = errors.New("unknown upload kind")
	ErrNoFileSubmitted = errors.New("no file submitted")
)

// allowedTypes is the upload content-type allowlist.
var allowedTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"text/plain": {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

type (
	// Storage saves uploaded files and yields a public URL path for each.
	Storage interface {
		Save(kind string, fh *multipart.FileHeader) (SavedFile, error)
	}

	SavedFile struct {
		// Name is the stored (sanitized) file name.
		Name string `json:"file_name"`
		// URL is the public path the file is served under.
		URL string `json:"file_url"`
		// OriginalName is the name the file was uploaded with.
		OriginalName string `json:"original_name"`
	}

	LocalStorage struct {
		conf *core.Config
		now  func() time.Time
	}
)

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(conf *core.Config) *LocalStorage {
	return &LocalStorage{conf: conf, now: time.Now}
}

// Save validates kind, size and content type, then writes the file under
// <uploads dir>/<kind>/ with a timestamp-prefixed sanitized name.
func (st *LocalStorage) Save(kind string, fh *multipart.FileHeader) (SavedFile, error) {
	if kind != KindAssignments && kind != KindSubmissions {
		return SavedFile{}, core.NewValidationError(ErrUnknownKind)
	}
	if fh == nil {
		return SavedFile{}, core.NewValidationError(ErrNoFileSubmitted)
	}
	if fh.Size > st.conf.Uploads.MaxFileSize {
		return SavedFile{}, core.NewValidationError(ErrFileTooLarge)
	}

	ctype := fh.Header.Get("Content-Type")
	if i := strings.Index(ctype, ";"); i >= 0 {
		ctype = ctype[:i]
	}
	ctype = core.CleanString(ctype, true /* lower */)
	if _, ok := allowedTypes[ctype]; !ok {
		return SavedFile{}, core.NewValidationError(ErrTypeNotAllowed)
	}

	name := fmt.Sprintf("%d-%s", st.now().UnixMilli(), sanitizeName(fh.Filename))
	dir := filepath.Join(st.conf.Uploads.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SavedFile{}, errors.Wrap(err, "creating uploads dir")
	}

	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return SavedFile{}, errors.Wrap(err, "creating file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return SavedFile{}, errors.Wrap(err, "writing file")
	}

	return SavedFile{
		Name:         name,
		URL:          "/uploads/" + kind + "/" + name,
		OriginalName: fh.Filename,
	}, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
