package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 100), B: 7, A: 255})
		}
	}
	return img
}

func TestSave_RoundTrip(t *testing.T) {
	decoders := map[string]func(*os.File) (image.Image, error){
		"png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}

	src := testImage()
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out."+format)
			if err := Save(path, src); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			file, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer file.Close()

			decoded, err := decoders[format](file)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded.Bounds() != src.Bounds() {
				t.Fatalf("Expected bounds %v, got %v", src.Bounds(), decoded.Bounds())
			}
			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					want := src.RGBAAt(x, y)
					r, g, b, _ := decoded.At(x, y).RGBA()
					if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
						t.Errorf("Pixel (%d,%d): expected %v, got (%d,%d,%d)", x, y, want, r>>8, g>>8, b>>8)
					}
				}
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path     string
		expected string
		wantErr  bool
	}{
		{"a.png", "png", false},
		{"dir/A.PNG", "png", false},
		{"a.bmp", "bmp", false},
		{"a.tif", "tiff", false},
		{"a.TIFF", "tiff", false},
		{"a.jpg", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("%s: expected ErrUnsupportedFormat, got %v", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("%s: expected %q, got %q (%v)", tt.path, tt.expected, got, err)
		}
	}
}

func TestSave_UnsupportedLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	if err := Save(path, testImage()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be created")
	}
}

func TestSnapshotPath(t *testing.T) {
	path, err := SnapshotPath("output", "bmp")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filepath.Dir(path) != "output" {
		t.Errorf("Expected output directory, got %s", path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "render_") || !strings.HasSuffix(base, ".bmp") {
		t.Errorf("Unexpected snapshot name %s", base)
	}
	if _, err := FormatOf(path); err != nil {
		t.Errorf("Snapshot path should be saveable: %v", err)
	}
}

func TestSnapshotPath_RejectsNonFormats(t *testing.T) {
	formats := []string{
		"",
		"gif",
		"PNG",
		"png/../../escaped.png",
		"../x.png",
		`png\..\x.png`,
		"/tmp/x.png",
	}

	for _, format := range formats {
		path, err := SnapshotPath("output", format)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%q: expected ErrUnsupportedFormat, got path %q err %v", format, path, err)
		}
	}
}
