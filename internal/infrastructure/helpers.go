package infrastructure

import "github.com/DRSN-tech/storefront-backend/pkg/e"

// ExtensionFromMIME возвращает расширение файла по MIME-типу фотографии.
// Поддерживаются jpeg, png, webp и gif.
func ExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	case "image/gif":
		return "gif", nil
	default:
		return "", e.Wrap(mime, e.ErrUnsupportedMediaType)
	}
}
