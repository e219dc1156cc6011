package domain

// Image описывает изображение, подготовленное для передачи модели:
// декодированное, без альфа-канала, перекодированное в канонический формат.
type Image struct {
	Data     []byte
	MimeType string // Example: "image/jpeg"
	Width    int
	Height   int
}

func NewImage(data []byte, mimeType string, width, height int) *Image {
	return &Image{
		Data:     data,
		MimeType: mimeType,
		Width:    width,
		Height:   height,
	}
}
