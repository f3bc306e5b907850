package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// EncodeImage reads a submitted photo and returns it as a data URL.
// size is the declared upload size; anything over MaxImageBytes is refused
// before the body is read. contentType is the type the browser sent for the
// file part; when it is empty or generic the type is sniffed from the bytes.
func EncodeImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	if size > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	// the declared size can lie, so cap the read as well
	b, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(b) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mediaType := imageType(contentType, b)
	if mediaType == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidImage, http.DetectContentType(b))
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// imageType picks the media type for the data URL, or "" when neither the
// declared type nor the content is an image.
func imageType(declared string, b []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		if strings.HasPrefix(mt, "image/") {
			return mt
		}
		return ""
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(b))
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return ""
}
