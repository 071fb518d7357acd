package csr

import (
	"crypto/dsa" //nolint:staticcheck // legacy DSA requests still turn up and must be described
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // fingerprint only
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"hash"
	"strings"
)

const (
	pemTypeCSR       = "CERTIFICATE REQUEST"
	pemTypeLegacyCSR = "NEW CERTIFICATE REQUEST"
)

var fingerprintHashes = []struct {
	name string
	new  func() hash.Hash
}{
	{"sha1", sha1.New},
	{"sha256", sha256.New},
	{"sha384", sha512.New384},
	{"sha512", sha512.New},
}

// Parse decodes a PEM certificate request. It either returns a fully populated
// ParsedCSR or a *ParseError, never a partial result.
func Parse(text string) (*ParsedCSR, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(text)))
	if block == nil {
		return nil, &ParseError{Reason: "no PEM block found"}
	}
	if block.Type != pemTypeCSR && block.Type != pemTypeLegacyCSR {
		return nil, &ParseError{Reason: fmt.Sprintf("unexpected PEM block type %q", block.Type)}
	}

	req, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, &ParseError{Reason: "invalid certificate request structure", Err: err}
	}

	extensions, err := parseExtensions(req.Extensions)
	if err != nil {
		return nil, &ParseError{Reason: "invalid extension", Err: err}
	}

	return &ParsedCSR{
		Valid:              req.CheckSignature() == nil,
		Version:            fmt.Sprintf("v%d", req.Version+1),
		Subject:            subjectFrom(req),
		PublicKey:          describePublicKey(req.PublicKey),
		SignatureAlgorithm: signatureAlgorithmName(req.SignatureAlgorithm),
		Fingerprints:       fingerprints(req.Raw),
		Extensions:         extensions,
	}, nil
}

func subjectFrom(req *x509.CertificateRequest) Subject {
	subject := make(Subject, 0, len(req.Subject.Names))
	for _, atv := range req.Subject.Names {
		subject = append(subject, Attribute{
			Kind:  attributeName(atv.Type),
			Value: fmt.Sprint(atv.Value),
		})
	}
	return subject
}

func describePublicKey(pub any) PublicKeyInfo {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return PublicKeyInfo{
			Algorithm:      KeyAlgorithmRSA,
			KeySize:        key.N.BitLen(),
			PublicExponent: key.E,
		}
	case *ecdsa.PublicKey:
		params := key.Curve.Params()
		curve, ok := curveNames[params.Name]
		if !ok {
			curve = params.Name
		}
		return PublicKeyInfo{
			Algorithm: KeyAlgorithmECC,
			KeySize:   params.BitSize,
			Curve:     curve,
		}
	case *dsa.PublicKey:
		return PublicKeyInfo{
			Algorithm: KeyAlgorithmDSA,
			KeySize:   key.P.BitLen(),
		}
	case ed25519.PublicKey:
		return PublicKeyInfo{
			Algorithm: KeyAlgorithmUnknown,
			KeySize:   len(key) * 8,
		}
	default:
		return PublicKeyInfo{Algorithm: KeyAlgorithmUnknown}
	}
}

// fingerprints hashes the re-encoded PEM text rather than the DER, so values stay
// comparable with fingerprints stored by earlier tooling.
func fingerprints(der []byte) map[string]string {
	encoded := pem.EncodeToMemory(&pem.Block{Type: pemTypeCSR, Bytes: der})

	out := make(map[string]string, len(fingerprintHashes))
	for _, fh := range fingerprintHashes {
		h := fh.new()
		h.Write(encoded)
		out[fh.name] = hex.EncodeToString(h.Sum(nil))
	}
	return out
}
