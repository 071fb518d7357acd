package csr

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"net"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func createCSR(t *testing.T, key any, tmpl *x509.CertificateRequest) string {
	t.Helper()
	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}))
}

func basicTemplate() *x509.CertificateRequest {
	return &x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName:   "test.example.com",
			Organization: []string{"Example Corp"},
			Country:      []string{"US"},
		},
	}
}

func TestValidateFormat(t *testing.T) {
	valid := createCSR(t, newRSAKey(t), basicTemplate())

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "well formed", input: valid, want: true},
		{name: "extra whitespace in body", input: strings.ReplaceAll(valid, "\n", "\n  \n"), want: true},
		{name: "empty", input: "", want: false},
		{name: "missing end marker", input: strings.Replace(valid, endMarker, "", 1), want: false},
		{name: "missing begin marker", input: strings.Replace(valid, beginMarker, "", 1), want: false},
		{name: "blank body decodes", input: beginMarker + "\n  \n" + endMarker, want: true},
		{name: "certificate markers", input: strings.ReplaceAll(valid, "CERTIFICATE REQUEST", "CERTIFICATE"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateFormat(tt.input))
		})
	}
}

func TestValidateFormatRejectsNonBase64Symbol(t *testing.T) {
	valid := createCSR(t, newRSAKey(t), basicTemplate())
	require.True(t, ValidateFormat(valid))

	start := strings.Index(valid, beginMarker) + len(beginMarker) + 1
	end := strings.Index(valid, endMarker)
	for _, pos := range []int{start, (start + end) / 2, end - 2} {
		if valid[pos] == '\n' {
			pos--
		}
		mutated := valid[:pos] + "!" + valid[pos+1:]
		assert.False(t, ValidateFormat(mutated), "mutation at %d should invalidate", pos)
	}
}

func TestParseRSA(t *testing.T) {
	key := newRSAKey(t)
	text := createCSR(t, key, basicTemplate())

	parsed, err := Parse(text)
	require.NoError(t, err)

	assert.True(t, parsed.Valid)
	assert.Equal(t, "v1", parsed.Version)
	assert.Equal(t, "sha256WithRSAEncryption", parsed.SignatureAlgorithm)
	assert.Equal(t, PublicKeyInfo{Algorithm: KeyAlgorithmRSA, KeySize: 2048, PublicExponent: 65537}, parsed.PublicKey)

	cn, ok := parsed.Subject.Get(FieldCommonName)
	require.True(t, ok)
	assert.Equal(t, "test.example.com", cn)
	org, _ := parsed.Subject.Get(FieldOrganization)
	assert.Equal(t, "Example Corp", org)
}

func TestParseECDSA(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	parsed, err := Parse(createCSR(t, key, basicTemplate()))
	require.NoError(t, err)

	assert.True(t, parsed.Valid)
	assert.Equal(t, KeyAlgorithmECC, parsed.PublicKey.Algorithm)
	assert.Equal(t, "secp384r1", parsed.PublicKey.Curve)
	assert.Equal(t, 384, parsed.PublicKey.KeySize)
	assert.Equal(t, "ecdsa-with-SHA384", parsed.SignatureAlgorithm)
}

func TestParseIsDeterministic(t *testing.T) {
	text := createCSR(t, newRSAKey(t), basicTemplate())

	first, err := Parse(text)
	require.NoError(t, err)
	second, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseFingerprints(t *testing.T) {
	parsed, err := Parse(createCSR(t, newRSAKey(t), basicTemplate()))
	require.NoError(t, err)

	want := map[string]int{"sha1": 40, "sha256": 64, "sha384": 96, "sha512": 128}
	require.Len(t, parsed.Fingerprints, len(want))
	for name, length := range want {
		fp, ok := parsed.Fingerprints[name]
		require.True(t, ok, "missing %s", name)
		assert.Len(t, fp, length)
		assert.Equal(t, strings.ToLower(fp), fp)
	}
}

func TestParseFingerprintsHashPEMText(t *testing.T) {
	text := createCSR(t, newRSAKey(t), basicTemplate())
	parsed, err := Parse(text)
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(text))
	assert.Equal(t, fingerprints(block.Bytes), parsed.Fingerprints)

	// Re-wrapping the same DER with different line breaks must not change the result.
	rewrapped := strings.ReplaceAll(text, "\n", "\r\n")
	again, err := Parse(rewrapped)
	require.NoError(t, err)
	assert.Equal(t, parsed.Fingerprints, again.Fingerprints)
}

func TestParseExtensions(t *testing.T) {
	uri, err := url.Parse("spiffe://example.com/workload")
	require.NoError(t, err)

	tmpl := basicTemplate()
	tmpl.DNSNames = []string{"test.example.com", "www.example.com"}
	tmpl.IPAddresses = []net.IP{net.ParseIP("10.0.0.1")}
	tmpl.EmailAddresses = []string{"ops@example.com"}
	tmpl.URIs = []*url.URL{uri}

	kuValue, err := asn1.Marshal(asn1.BitString{Bytes: []byte{0xa0}, BitLength: 3})
	require.NoError(t, err)
	ekuValue, err := asn1.Marshal([]asn1.ObjectIdentifier{{1, 3, 6, 1, 5, 5, 7, 3, 1}, {1, 3, 6, 1, 5, 5, 7, 3, 2}, {1, 2, 3, 4}})
	require.NoError(t, err)
	bcValue, err := asn1.Marshal(struct {
		IsCA    bool `asn1:"optional"`
		MaxPath int  `asn1:"optional,default:-1"`
	}{IsCA: true, MaxPath: 2})
	require.NoError(t, err)

	tmpl.ExtraExtensions = []pkix.Extension{
		{Id: oidExtKeyUsage, Critical: true, Value: kuValue},
		{Id: oidExtExtendedKeyUsage, Value: ekuValue},
		{Id: oidExtBasicConstraints, Critical: true, Value: bcValue},
	}

	parsed, err := Parse(createCSR(t, newRSAKey(t), tmpl))
	require.NoError(t, err)

	// x509 encodes SANs grouped by kind: DNS, email, IP, then URI.
	assert.Equal(t, []GeneralName{
		{Type: SANTypeDNS, Value: "test.example.com"},
		{Type: SANTypeDNS, Value: "www.example.com"},
		{Type: SANTypeEmail, Value: "ops@example.com"},
		{Type: SANTypeIP, Value: "10.0.0.1"},
		{Type: SANTypeURI, Value: "spiffe://example.com/workload"},
	}, parsed.Extensions.SubjectAlternativeNames)
	assert.Equal(t, []string{"digitalSignature", "keyEncipherment"}, parsed.Extensions.KeyUsage)
	assert.Equal(t, []string{"serverAuth", "clientAuth", "1.2.3.4"}, parsed.Extensions.ExtendedKeyUsage)
	assert.Equal(t, "CA:TRUE, pathlen:2", parsed.Extensions.BasicConstraints)
}

func TestParseBasicConstraintsNotCA(t *testing.T) {
	got, err := parseBasicConstraints([]byte{0x30, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "CA:FALSE", got)
}

func TestParseUnknownSubjectOID(t *testing.T) {
	tmpl := basicTemplate()
	tmpl.Subject.ExtraNames = []pkix.AttributeTypeAndValue{
		{Type: asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 1}, Value: "custom"},
	}

	parsed, err := Parse(createCSR(t, newRSAKey(t), tmpl))
	require.NoError(t, err)

	value, ok := parsed.Subject.Get("1.3.6.1.4.1.99999.1")
	require.True(t, ok)
	assert.Equal(t, "custom", value)
}

func TestParseDetectsBadSignature(t *testing.T) {
	text := createCSR(t, newRSAKey(t), basicTemplate())
	block, _ := pem.Decode([]byte(text))

	der := append([]byte(nil), block.Bytes...)
	der[len(der)-1] ^= 0xff
	tampered := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}))

	parsed, err := Parse(tampered)
	require.NoError(t, err)
	assert.False(t, parsed.Valid)
}

func TestParseErrors(t *testing.T) {
	valid := createCSR(t, newRSAKey(t), basicTemplate())
	block, _ := pem.Decode([]byte(valid))

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "not pem", input: "hello world"},
		{name: "wrong block type", input: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: block.Bytes}))},
		{name: "truncated der", input: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: block.Bytes[:len(block.Bytes)/2]}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.input)
			assert.Nil(t, parsed)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestParseAcceptsLegacyBlockType(t *testing.T) {
	valid := createCSR(t, newRSAKey(t), basicTemplate())
	block, _ := pem.Decode([]byte(valid))
	legacy := string(pem.EncodeToMemory(&pem.Block{Type: "NEW CERTIFICATE REQUEST", Bytes: block.Bytes}))

	parsed, err := Parse(legacy)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}
