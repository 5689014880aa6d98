package output

import (
	"bytes"
	"html/template"
	"image"
	"os"
	"time"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
)

// The document is self-contained: the mosaic is embedded as a base64 PNG
// data URL, so the file opens in any browser without network access or
// sidecar assets. HTML output is always lossless; JPEG quality settings do
// not apply.
var htmlTemplate = template.Must(template.New("orthomosaic").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
    h1 { color: #333; }
    .meta { color: #666; margin-bottom: 16px; font-size: 0.9em; }
    .image-container { max-width: 100%; overflow: auto; }
    img { max-width: 100%; height: auto; border: 1px solid #ccc; border-radius: 4px; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p class="meta">Size: {{.Width}}&times;{{.Height}} pixels &bull; Generated: {{.Generated}}</p>
  <div class="image-container">
    <img src="data:image/png;base64,{{.Payload}}" alt="{{.Title}}">
  </div>
</body>
</html>
`))

type htmlDocument struct {
	Title     string
	Width     int
	Height    int
	Generated string
	Payload   string
}

func (w *Writer) writeHTML(img image.Image, path string, opts Options) error {
	payload, err := imgio.EncodeBase64PNG(img, DefaultPNGCompression)
	if err != nil {
		return errs.Wrap(errs.KindOutput, err, "failed to encode image for HTML output").WithPath(path)
	}

	title := opts.Title
	if title == "" {
		title = "Orthomosaic"
	}
	bounds := img.Bounds()
	doc := htmlDocument{
		Title:     title,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Generated: time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Payload:   payload,
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return errs.Wrap(errs.KindOutput, err, "failed to render HTML document").WithPath(path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errs.Wrap(errs.KindOutput, err, "failed to write HTML file").WithPath(path)
	}
	w.log.Info("html report written", "path", path, "width", doc.Width, "height", doc.Height)
	return nil
}
