package client

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURI is returned when a CAPTCHA payload is not a base64 data URI.
var ErrNotDataURI = errors.New("captcha is not a base64 data URI")

// DecodeCaptchaImage splits a "data:<mime>;base64,<payload>" string into its
// media type and decoded bytes.
func DecodeCaptchaImage(dataURI string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}

// ImageExtension picks a file extension for a CAPTCHA media type.
func ImageExtension(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
