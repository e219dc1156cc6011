package imagefetch

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/pkg/e"
)

// jpegQuality — качество перекодирования при сведении альфа-канала.
const jpegQuality = 90

// Prepare декодирует байты изображения (JPEG, PNG, GIF, WebP) и подготавливает
// их для модели: изображение с альфа-каналом сводится на непрозрачный белый фон
// и перекодируется в JPEG. Модель никогда не получает альфа-канал.
func (f *Fetcher) Prepare(data []byte) (*domain.Image, error) {
	const op = "Fetcher.Prepare"

	if len(data) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyImage)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrDecodeFailed))
	}

	bounds := src.Bounds()

	// Непрозрачные изображения передаются как есть, без перекодирования.
	if img, ok := src.(interface{ Opaque() bool }); ok && img.Opaque() {
		return domain.NewImage(data, mimeTypeForFormat(format), bounds.Dx(), bounds.Dy()), nil
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrDecodeFailed))
	}

	return domain.NewImage(buf.Bytes(), "image/jpeg", bounds.Dx(), bounds.Dy()), nil
}

func mimeTypeForFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
