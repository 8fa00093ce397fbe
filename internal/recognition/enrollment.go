package recognition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrNoEnrollmentDir = errors.New("enrollment directory not found")

// ImageRef points at one enrollment photo.
type ImageRef struct {
	Path string
}

// Enrollment lists the photos enrolled for one name.
type Enrollment struct {
	Name   string
	Images []ImageRef
}

// EnrollmentSource is the catalog the EncodingStore is rebuilt from.
type EnrollmentSource interface {
	Enrollments(ctx context.Context) ([]Enrollment, error)
	ReadImage(ctx context.Context, ref ImageRef) ([]byte, error)
}

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".bmp": {}, ".gif": {},
}

// DirSource reads enrollments from <root>/<name>/<image>.  Files with other
// extensions and hidden entries are ignored.  A person directory that cannot
// be read is logged and skipped.
type DirSource struct {
	Root   string
	Logger logrus.FieldLogger
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (d *DirSource) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

func (d *DirSource) Enrollments(_ context.Context) ([]Enrollment, error) {
	people, err := os.ReadDir(d.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoEnrollmentDir, d.Root)
	}
	if err != nil {
		return nil, fmt.Errorf("read enrollment dir: %w", err)
	}

	var out []Enrollment
	for _, p := range people {
		if !p.IsDir() || strings.HasPrefix(p.Name(), ".") {
			continue
		}
		dir := filepath.Join(d.Root, p.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			d.logger().WithError(err).WithField("name", p.Name()).Warn("skipping unreadable enrollment directory")
			continue
		}

		e := Enrollment{Name: p.Name()}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			if _, ok := imageExts[strings.ToLower(filepath.Ext(f.Name()))]; !ok {
				continue
			}
			e.Images = append(e.Images, ImageRef{Path: filepath.Join(dir, f.Name())})
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *DirSource) ReadImage(_ context.Context, ref ImageRef) ([]byte, error) {
	return os.ReadFile(ref.Path)
}
