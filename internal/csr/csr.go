// Package csr decodes PEM certificate signing requests into a display-oriented view:
// subject attributes, public key metadata, signature algorithm, fingerprints and the
// extensions an operator needs to see before a request is submitted for signing.
//
// A ParsedCSR with Valid set only proves that the holder of the embedded public key
// produced the request. It says nothing about whether the subject can be trusted.
package csr

const (
	KeyAlgorithmRSA     = "RSA"
	KeyAlgorithmECC     = "ECC"
	KeyAlgorithmDSA     = "DSA"
	KeyAlgorithmUnknown = "Unknown"
)

const (
	SANTypeDNS   = "DNS"
	SANTypeIP    = "IP"
	SANTypeEmail = "Email"
	SANTypeURI   = "URI"
	SANTypeOther = "Other"
)

// ParsedCSR is built fresh on every Parse call and is never mutated afterwards.
type ParsedCSR struct {
	Valid              bool              `json:"valid"`
	Version            string            `json:"version"`
	Subject            Subject           `json:"subject"`
	PublicKey          PublicKeyInfo     `json:"public_key"`
	SignatureAlgorithm string            `json:"signature_algorithm"`
	Fingerprints       map[string]string `json:"fingerprints"`
	Extensions         Extensions        `json:"extensions"`
}

// Attribute is a single relative distinguished name value. Kind is the friendly name
// from the OID table, or the dotted OID when the attribute type is not known.
type Attribute struct {
	Kind  string `json:"field"`
	Value string `json:"value"`
}

// Subject keeps attributes in the order they appear in the request.
type Subject []Attribute

// Get returns the first value of the given kind.
func (s Subject) Get(kind string) (string, bool) {
	for _, attr := range s {
		if attr.Kind == kind {
			return attr.Value, true
		}
	}
	return "", false
}

type PublicKeyInfo struct {
	Algorithm      string `json:"algorithm"`
	KeySize        int    `json:"key_size,omitempty"`
	PublicExponent int    `json:"public_exponent,omitempty"`
	Curve          string `json:"curve,omitempty"`
}

type GeneralName struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Extensions struct {
	SubjectAlternativeNames []GeneralName `json:"subject_alternative_name,omitempty"`
	KeyUsage                []string      `json:"key_usage,omitempty"`
	ExtendedKeyUsage        []string      `json:"extended_key_usage,omitempty"`
	BasicConstraints        string        `json:"basic_constraints,omitempty"`
}
