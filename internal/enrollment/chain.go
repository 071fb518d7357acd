package enrollment

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"go.mozilla.org/pkcs7"
)

// ParseChain decodes a certnew.p7b payload. certsrv returns raw DER for Enc=bin and a
// PEM wrapped bundle (labelled CERTIFICATE or PKCS7) for Enc=b64.
func ParseChain(data []byte) ([]*x509.Certificate, error) {
	der, err := unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	p7, err := pkcs7.Parse(der)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid PKCS#7 chain: %v", ErrRetrieval, err)
	}
	if len(p7.Certificates) == 0 {
		return nil, fmt.Errorf("%w: chain contains no certificates", ErrRetrieval)
	}
	return p7.Certificates, nil
}

// ParseCertificate decodes a certnew.cer payload in either encoding.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	der, err := unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid certificate: %v", ErrRetrieval, err)
	}
	return cert, nil
}

// EncodePEM renders certificates as concatenated CERTIFICATE blocks.
func EncodePEM(certs ...*x509.Certificate) []byte {
	var buf bytes.Buffer
	for _, cert := range certs {
		_ = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	}
	return buf.Bytes()
}

func unwrap(data []byte) ([]byte, error) {
	// DER starts with a SEQUENCE tag. Base64 of DER starts with "M" and PEM with "-".
	if len(data) > 0 && data[0] == 0x30 {
		return data, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	if block, _ := pem.Decode(trimmed); block != nil {
		return block.Bytes, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(string(whitespace.ReplaceAll(trimmed, nil)))
	if err != nil {
		return nil, fmt.Errorf("payload is neither DER, PEM nor base64: %w", err)
	}
	return decoded, nil
}
