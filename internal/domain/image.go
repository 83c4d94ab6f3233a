package domain

// Image описывает фотографию товара, которая загружается в S3
type Image struct {
	ID        string // uuid
	ObjectKey string
	Bytes     []byte
	// Передайте значение -1 в Size, если размер потока неизвестен
	Size     int64
	MimeType string
}

func NewImage(id string, objectKey string, data []byte, size int64, mimeType string) *Image {
	return &Image{
		ID:        id,
		ObjectKey: objectKey,
		Bytes:     data,
		Size:      size,
		MimeType:  mimeType,
	}
}
