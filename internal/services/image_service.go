package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

// ImageFile is an uploaded file as received from a form.
type ImageFile struct {
	Name        string
	ContentType string // empty or generic means sniff from Data
	Data        []byte
}

// EncodeImage checks size and type and returns a data URI. It never touches
// the network.
func EncodeImage(f ImageFile) (string, error) {
	if len(f.Data) > MaxImageBytes {
		return "", &ValidationError{Field: "image", Msg: "file too large"}
	}
	mime := strings.TrimSpace(f.ContentType)
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = http.DetectContentType(f.Data)
	}
	// drop parameters such as "; charset=utf-8"
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	mime = strings.ToLower(mime)
	if !strings.HasPrefix(mime, "image/") {
		return "", &ValidationError{Field: "image", Msg: "not an image"}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data), nil
}

// UploadImage converts an uploaded file into the string stored in image
// attributes: a data URI, or a hosted URL when an image sink is configured.
func (a *API) UploadImage(ctx context.Context, f ImageFile) (string, error) {
	uri, err := EncodeImage(f)
	if err != nil {
		return "", err
	}
	return a.HostImage(ctx, f.Name, uri)
}

// HostImage hands an encoded image to the image sink and returns its URL.
// Without a sink the data URI is returned unchanged.
func (a *API) HostImage(ctx context.Context, name, uri string) (string, error) {
	if a.images == nil {
		return uri, nil
	}
	url, err := a.images.Upload(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("services: upload image %q: %w", name, err)
	}
	return url, nil
}
