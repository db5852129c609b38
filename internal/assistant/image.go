package assistant

import (
	"encoding/base64"
	"strings"
)

const (
	defaultImageMIME = "image/jpeg"
	maxImageBytes    = 8 << 20
)

// DecodeImage accepts a bare base64 string or a data URL
// ("data:image/png;base64,...") and returns the decoded picture.
func DecodeImage(raw string) (*Image, error) {
	raw = strings.TrimSpace(raw)
	mime := defaultImageMIME
	if header, payload, ok := strings.Cut(raw, ","); ok {
		raw = payload
		if m, found := strings.CutPrefix(header, "data:"); found {
			if m, _, _ = strings.Cut(m, ";"); strings.HasPrefix(m, "image/") {
				mime = m
			}
		}
	}
	if raw == "" {
		return nil, invalid("image", "Görsel boş olamaz.")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, invalid("image", "Görsel base64 formatında olmalıdır.")
	}
	if len(data) > maxImageBytes {
		return nil, invalid("image", "Görsel en fazla 8 MB olabilir.")
	}
	return &Image{MIMEType: mime, Data: data}, nil
}
