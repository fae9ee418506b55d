package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func TestRemoveLoaderOutput(t *testing.T) {
	cases := map[string]string{
		"clip_model_load: ...\nencode_image_with_clip: image embedding created: 576 tokens (576 per image patch)\n A cat sleeping on a sofa.\n": "A cat sleeping on a sofa.",
		"  a dog  \n": "a dog",
		"":            "",
	}
	for input, want := range cases {
		if got := removeLoaderOutput(input); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("loading\nerror: cannot open model\n"); got != "error: cannot open model" {
		t.Fatalf("unexpected line %q", got)
	}
}

func writeFakeLlava(t *testing.T, dir, script string) LlavaCppConfig {
	t.Helper()

	binary := filepath.Join(dir, "llava-cli")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write binary: %v", err)
	}
	return LlavaCppConfig{
		Binary:     binary,
		Model:      writeFile(t, dir, "model.gguf", []byte("gguf")),
		Projection: writeFile(t, dir, "mmproj.gguf", []byte("gguf")),
		Prompt:     "Describe the image.",
	}
}

func TestLlavaCppCaption(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell")
	}

	dir := t.TempDir()
	config := writeFakeLlava(t, dir, `echo "clip: 576 tokens (576 per image patch)"
echo " a red bicycle against a wall"
`)
	model, err := NewLlavaCppModel(50, config)
	if err != nil {
		t.Fatalf("NewLlavaCppModel failed: %v", err)
	}
	if model.Name() != "llavacpp:model.gguf" {
		t.Fatalf("unexpected name %s", model.Name())
	}

	path := writePNG(t, dir, "photo.png", 2, 2)
	captions, err := model.Caption(context.Background(), &Image{Ref: path, Format: "png"})
	if err != nil {
		t.Fatalf("Caption failed: %v", err)
	}
	if len(captions) != 1 || captions[0] != "a red bicycle against a wall" {
		t.Fatalf("unexpected captions %v", captions)
	}

	captions, err = model.Caption(context.Background(), &Image{Ref: "http://example.com/x.png", Data: pngBytes(t, 2, 2), Format: "png"})
	if err != nil || len(captions) != 1 {
		t.Fatalf("unexpected result %v %v", captions, err)
	}
}

func TestLlavaCppReadsLoadedImage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell")
	}

	dir := t.TempDir()
	root := filepath.Join(dir, "photos")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	stored := writePNG(t, root, "photo.png", 2, 2)

	model, err := NewLlavaCppModel(50, writeFakeLlava(t, dir, `while [ $# -gt 0 ]; do
	if [ "$1" = "--image" ]; then image="$2"; fi
	shift
done
echo "clip: (576 per image patch)"
echo "$image $(wc -c < "$image" | tr -d ' ')"
`))
	if err != nil {
		t.Fatalf("NewLlavaCppModel failed: %v", err)
	}

	loader := NewImageLoader(ImagesConfig{Root: root})
	for _, ref := range []string{"photo.png", stored} {
		writePNG(t, root, "photo.png", 2, 2)
		img, err := loader.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("%s: Load failed: %v", ref, err)
		}

		// The file changes after validation; inference must still see the loaded bytes.
		writePNG(t, root, "photo.png", 7, 7)

		captions, err := model.Caption(context.Background(), img)
		if err != nil {
			t.Fatalf("%s: Caption failed: %v", ref, err)
		}
		if len(captions) != 1 {
			t.Fatalf("%s: unexpected captions %v", ref, captions)
		}
		fields := strings.Fields(captions[0])
		if len(fields) != 2 {
			t.Fatalf("%s: unexpected output %q", ref, captions[0])
		}
		if fields[0] == ref || fields[0] == stored {
			t.Fatalf("%s: llava.cpp was given the reference instead of the loaded bytes", ref)
		}
		if fields[1] != strconv.Itoa(len(img.Data)) {
			t.Fatalf("%s: llava.cpp read %s bytes, loaded image has %d", ref, fields[1], len(img.Data))
		}
	}
}

func TestLlavaCppFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell")
	}

	dir := t.TempDir()
	model, err := NewLlavaCppModel(50, writeFakeLlava(t, dir, "echo 'failed to load model' >&2\nexit 1\n"))
	if err != nil {
		t.Fatalf("NewLlavaCppModel failed: %v", err)
	}

	_, err = model.Caption(context.Background(), &Image{Ref: writePNG(t, dir, "photo.png", 2, 2)})
	expectKind(t, err, KindInternal)
	if err.Error() != "llava.cpp failed: failed to load model: exit status 1" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestLlavaCppMissingFiles(t *testing.T) {
	if _, err := NewLlavaCppModel(50, LlavaCppConfig{Binary: "/nonexistent/llava-cli"}); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}
