package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/google/uuid"
	"github.com/hupe1980/mlfabric/core"
)

type pngFigure struct{ img image.Image }

// PNG adapts an image to a core.Figure encoded as PNG.
func PNG(img image.Image) core.Figure { return pngFigure{img: img} }

func (p pngFigure) Format() string { return "png" }

func (p pngFigure) Encode(w io.Writer) error { return png.Encode(w, p.img) }

type rawFigure struct {
	format string
	data   []byte
}

// Raw wraps already encoded image bytes (svg, jpeg, ...) as a core.Figure.
func Raw(format string, data []byte) core.Figure { return rawFigure{format: format, data: data} }

func (r rawFigure) Format() string { return r.format }

func (r rawFigure) Encode(w io.Writer) error {
	_, err := w.Write(r.data)
	return err
}

// SaveImage encodes fig and stores it as "<title>.<format>". When the name is
// taken or not a valid file name it retries once under a random UUID name.
// It returns the name the figure was stored under.
func SaveImage(store core.ArtifactStore, runID, title string, fig core.Figure) (string, error) {
	if fig == nil {
		return "", errors.New("nil figure")
	}
	var buf bytes.Buffer
	if err := fig.Encode(&buf); err != nil {
		return "", fmt.Errorf("encode figure: %w", err)
	}

	ext := fig.Format()
	if ext == "" {
		ext = "bin"
	}

	name := title + "." + ext
	err := store.Save(runID, name, buf.Bytes())
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, ErrExists) && !errors.Is(err, ErrInvalidName) {
		return "", err
	}

	name = uuid.NewString() + "." + ext
	if err := store.Save(runID, name, buf.Bytes()); err != nil {
		return "", err
	}
	return name, nil
}
