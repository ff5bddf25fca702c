package metadata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Info is a best-effort description of an audio file, used to enrich the
// "playing" log line. Probing never fails; missing tags fall back to the
// file name and an unknown duration stays zero.
type Info struct {
	Title    string
	Duration time.Duration
}

// Probe inspects the file at path for a title tag and, for MP3 files, a
// duration computed by walking the frames.
func Probe(path string) Info {
	info := Info{Title: readTitle(path)}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if dur, err := computeMP3Duration(path); err == nil && dur > 0 {
			info.Duration = dur
		}
	}

	return info
}

// String renders the info for logging, e.g. "Blue Train (10m43s)".
func (i Info) String() string {
	if i.Duration <= 0 {
		return i.Title
	}
	return i.Title + " (" + i.Duration.Round(time.Second).String() + ")"
}

func readTitle(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(meta.Title())
	if title == "" {
		return fallback
	}
	return title
}

func computeMP3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}

	return total, nil
}
