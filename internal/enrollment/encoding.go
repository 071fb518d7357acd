package enrollment

import (
	"fmt"
)

// Encoding selects the certsrv response format.
type Encoding string

const (
	EncodingBase64 Encoding = "b64"
	EncodingBinary Encoding = "bin"
)

func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingBase64, EncodingBinary:
		return Encoding(s), nil
	case "":
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q, expected b64 or bin", s)
	}
}
