package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestImageLoaderLoadsPNG(t *testing.T) {
	t.Parallel()

	path := writePNG(t, t.TempDir(), "photo.png", 4, 3)
	loader := NewImageLoader(ImagesConfig{})

	img, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Format != "png" || img.MIME != "image/png" {
		t.Fatalf("unexpected format %s / %s", img.Format, img.MIME)
	}
	if img.Width != 4 || img.Height != 3 {
		t.Fatalf("unexpected size %dx%d", img.Width, img.Height)
	}
	if img.Ref != path {
		t.Fatalf("unexpected ref %s", img.Ref)
	}
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if e := AsError(err); e.Kind != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, e.Kind, err)
	}
}

func TestImageLoaderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	textFile := writeFile(t, dir, "notes.txt", []byte("not an image at all"))
	broken := writeFile(t, dir, "broken.png", pngBytes(t, 8, 8)[:20])
	empty := writeFile(t, dir, "empty.png", nil)

	loader := NewImageLoader(ImagesConfig{})
	ctx := context.Background()

	_, err := loader.Load(ctx, "")
	expectKind(t, err, KindInput)

	_, err = loader.Load(ctx, "   ")
	expectKind(t, err, KindInput)

	_, err = loader.Load(ctx, filepath.Join(dir, "missing.jpg"))
	expectKind(t, err, KindNotFound)

	_, err = loader.Load(ctx, textFile)
	expectKind(t, err, KindInput)

	_, err = loader.Load(ctx, broken)
	expectKind(t, err, KindInput)

	_, err = loader.Load(ctx, empty)
	expectKind(t, err, KindInput)

	_, err = loader.Load(ctx, dir)
	expectKind(t, err, KindInput)
}

func TestImageLoaderMaxBytes(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 16, 16)
	path := writeFile(t, t.TempDir(), "big.png", data)

	_, err := NewImageLoader(ImagesConfig{MaxBytes: int64(len(data) - 1)}).Load(context.Background(), path)
	expectKind(t, err, KindInput)

	if _, err := NewImageLoader(ImagesConfig{MaxBytes: int64(len(data))}).Load(context.Background(), path); err != nil {
		t.Fatalf("expected image at the limit to load: %v", err)
	}
}

func TestImageLoaderRoot(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "photos")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	writePNG(t, root, "inside.png", 2, 2)
	outside := writePNG(t, base, "outside.png", 2, 2)

	loader := NewImageLoader(ImagesConfig{Root: root})
	ctx := context.Background()

	if _, err := loader.Load(ctx, "inside.png"); err != nil {
		t.Fatalf("relative path inside root failed: %v", err)
	}
	if _, err := loader.Load(ctx, filepath.Join(root, "inside.png")); err != nil {
		t.Fatalf("absolute path inside root failed: %v", err)
	}

	_, err := loader.Load(ctx, outside)
	expectKind(t, err, KindForbidden)

	_, err = loader.Load(ctx, "../outside.png")
	expectKind(t, err, KindForbidden)
}

func TestImageLoaderRemote(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	_, err := NewImageLoader(ImagesConfig{}).Load(ctx, srv.URL+"/photo.png")
	expectKind(t, err, KindForbidden)

	loader := NewImageLoader(ImagesConfig{AllowRemote: true})

	img, err := loader.Load(ctx, srv.URL+"/photo.png")
	if err != nil {
		t.Fatalf("remote load failed: %v", err)
	}
	if img.Width != 5 || img.Height != 5 {
		t.Fatalf("unexpected size %dx%d", img.Width, img.Height)
	}

	_, err = loader.Load(ctx, srv.URL+"/missing.png")
	expectKind(t, err, KindNotFound)

	_, err = loader.Load(ctx, srv.URL+"/error")
	expectKind(t, err, KindInput)
}
