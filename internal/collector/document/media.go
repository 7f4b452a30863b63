package document

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/abema/go-mp4"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"misinfo/internal/record"
)

func processImage(path string) (*record.Record, error) {
	f, err := os.Open(path) // #nosec G304 -- path chosen by the operator running the CLI
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	rec := record.New("", record.TypeImageFile, "Image file: "+filepath.Base(path))
	rec.Set("dimensions", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	rec.Set("format", format)
	rec.Set("mode", colorMode(cfg.ColorModel))
	rec.Set("exif_data", readExif(f))
	rec.Set("mime_type", "image/"+format)
	return rec, nil
}

type exifCollector map[string]string

func (e exifCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	e[string(name)] = tag.String()
	return nil
}

// readExif returns the EXIF fields as strings; files without EXIF give an empty map.
func readExif(f *os.File) map[string]string {
	out := exifCollector{}
	x, err := exif.Decode(f)
	if err != nil {
		return out
	}
	_ = x.Walk(out)
	return out
}

func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	}
	return "unknown"
}

// processVideo probes ISO-BMFF containers (mp4, mov). Other containers keep
// zeroed stream properties.
func processVideo(path, mimeType string) (*record.Record, error) {
	rec := record.New("", record.TypeVideoFile, "Video file: "+filepath.Base(path))
	rec.Set("duration_seconds", 0.0)
	rec.Set("fps", 0.0)
	rec.Set("frame_count", 0)
	rec.Set("dimensions", "0x0")
	rec.Set("mime_type", mimeType)

	if mimeType != "video/mp4" && mimeType != "video/quicktime" {
		return rec, nil
	}

	f, err := os.Open(path) // #nosec G304 -- path chosen by the operator running the CLI
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	if info.Timescale > 0 {
		rec.Set("duration_seconds", float64(info.Duration)/float64(info.Timescale))
	}

	for _, track := range info.Tracks {
		if track.AVC == nil {
			continue
		}
		frames := len(track.Samples)
		rec.Set("frame_count", frames)
		rec.Set("dimensions", fmt.Sprintf("%dx%d", track.AVC.Width, track.AVC.Height))
		if track.Timescale > 0 && track.Duration > 0 {
			secs := float64(track.Duration) / float64(track.Timescale)
			rec.Set("fps", float64(frames)/secs)
		}
		break
	}
	return rec, nil
}
