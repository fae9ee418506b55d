package internal

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Image struct {
	Ref    string
	Data   []byte
	MIME   string
	Format string
	Width  int
	Height int
}

type ImageLoader struct {
	config ImagesConfig
	client *http.Client
}

func NewImageLoader(config ImagesConfig) *ImageLoader {
	return &ImageLoader{
		config: config,
		client: &http.Client{Timeout: config.RemoteTimeout},
	}
}

func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads and validates the image named by ref, which is a local path or, when allowed,
// an http(s) URL.
func (l *ImageLoader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, InputError("missing 'file' parameter")
	}

	var (
		data []byte
		err  error
	)
	if isRemote(ref) {
		data, err = l.fetch(ctx, ref)
	} else {
		data, err = l.read(ref)
	}
	if err != nil {
		return nil, err
	}

	return decodeImage(ref, data)
}

func decodeImage(ref string, data []byte) (*Image, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, InputError("%s is not an image (%s)", ref, mime.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindInput, err, "cannot decode image %s", ref)
	}

	return &Image{
		Ref:    ref,
		Data:   data,
		MIME:   mime.String(),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func (l *ImageLoader) resolve(ref string) (string, error) {
	path := filepath.Clean(ref)
	if l.config.Root == "" {
		return path, nil
	}

	root, err := filepath.Abs(l.config.Root)
	if err != nil {
		return "", InternalError(err, "invalid images root %s", l.config.Root)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if resolvedRoot, err := filepath.EvalSymlinks(root); err == nil {
		root = resolvedRoot
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ForbiddenError("%s is outside the image root", ref)
	}
	return path, nil
}

func (l *ImageLoader) read(ref string) ([]byte, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NotFoundError(err, "no such file: %s", ref)
		}
		if os.IsPermission(err) {
			return nil, ForbiddenError("cannot read %s", ref)
		}
		return nil, InternalError(err, "cannot open %s", ref)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, InternalError(err, "cannot stat %s", ref)
	}
	if info.IsDir() {
		return nil, InputError("%s is a directory", ref)
	}

	return l.readLimited(ref, f)
}

func (l *ImageLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	if !l.config.AllowRemote {
		return nil, ForbiddenError("remote images are not allowed: %s", ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, InputError("invalid url %s", ref)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, UnavailableError(err, "cannot fetch %s", ref)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFoundError(nil, "no such image: %s", ref)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, InputError("fetching %s returned %s", ref, resp.Status)
	}

	return l.readLimited(ref, resp.Body)
}

func (l *ImageLoader) readLimited(ref string, r io.Reader) ([]byte, error) {
	if l.config.MaxBytes > 0 {
		r = io.LimitReader(r, l.config.MaxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, InternalError(err, "cannot read %s", ref)
	}
	if l.config.MaxBytes > 0 && int64(len(data)) > l.config.MaxBytes {
		return nil, InputError("%s is larger than %d bytes", ref, l.config.MaxBytes)
	}
	if len(data) == 0 {
		return nil, InputError("%s is empty", ref)
	}
	return data, nil
}
