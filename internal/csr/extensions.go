package csr

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidExtSubjectAltName   = asn1.ObjectIdentifier{2, 5, 29, 17}
	oidExtKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtExtendedKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
)

// GeneralName context tags (RFC 5280 4.2.1.6).
const (
	tagRFC822Name = 1
	tagDNSName    = 2
	tagURI        = 6
	tagIPAddress  = 7
)

func parseExtensions(exts []pkix.Extension) (Extensions, error) {
	var out Extensions
	for _, ext := range exts {
		var err error
		switch {
		case ext.Id.Equal(oidExtSubjectAltName):
			out.SubjectAlternativeNames, err = parseSubjectAltNames(ext.Value)
		case ext.Id.Equal(oidExtKeyUsage):
			out.KeyUsage, err = parseKeyUsage(ext.Value)
		case ext.Id.Equal(oidExtExtendedKeyUsage):
			out.ExtendedKeyUsage, err = parseExtKeyUsage(ext.Value)
		case ext.Id.Equal(oidExtBasicConstraints):
			out.BasicConstraints, err = parseBasicConstraints(ext.Value)
		}
		if err != nil {
			return Extensions{}, fmt.Errorf("extension %s: %w", ext.Id, err)
		}
	}
	return out, nil
}

func parseSubjectAltNames(der []byte) ([]GeneralName, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed subject alternative name sequence")
	}

	var names []GeneralName
	for !seq.Empty() {
		var value cryptobyte.String
		var tag cbasn1.Tag
		if !seq.ReadAnyASN1(&value, &tag) {
			return nil, errors.New("malformed general name")
		}

		switch tag {
		case cbasn1.Tag(tagRFC822Name).ContextSpecific():
			names = append(names, GeneralName{Type: SANTypeEmail, Value: string(value)})
		case cbasn1.Tag(tagDNSName).ContextSpecific():
			names = append(names, GeneralName{Type: SANTypeDNS, Value: string(value)})
		case cbasn1.Tag(tagURI).ContextSpecific():
			names = append(names, GeneralName{Type: SANTypeURI, Value: string(value)})
		case cbasn1.Tag(tagIPAddress).ContextSpecific():
			if len(value) != net.IPv4len && len(value) != net.IPv6len {
				return nil, fmt.Errorf("invalid IP address length %d", len(value))
			}
			names = append(names, GeneralName{Type: SANTypeIP, Value: net.IP(value).String()})
		default:
			names = append(names, GeneralName{Type: SANTypeOther, Value: fmt.Sprintf("tag %d: %x", tag&0x1f, []byte(value))})
		}
	}
	return names, nil
}

func parseKeyUsage(der []byte) ([]string, error) {
	var bits asn1.BitString
	rest, err := asn1.Unmarshal(der, &bits)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing data after key usage")
	}

	var usages []string
	for i, name := range keyUsageNames {
		if bits.At(i) != 0 {
			usages = append(usages, name)
		}
	}
	return usages, nil
}

func parseExtKeyUsage(der []byte) ([]string, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed extended key usage sequence")
	}

	var usages []string
	for !seq.Empty() {
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, errors.New("malformed extended key usage OID")
		}
		usages = append(usages, extKeyUsageName(oid))
	}
	return usages, nil
}

func parseBasicConstraints(der []byte) (string, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return "", errors.New("malformed basic constraints sequence")
	}

	isCA := false
	if seq.PeekASN1Tag(cbasn1.BOOLEAN) {
		if !seq.ReadASN1Boolean(&isCA) {
			return "", errors.New("malformed cA flag")
		}
	}

	pathLen := -1
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		if !seq.ReadASN1Integer(&pathLen) {
			return "", errors.New("malformed pathLenConstraint")
		}
	}

	var b strings.Builder
	if isCA {
		b.WriteString("CA:TRUE")
	} else {
		b.WriteString("CA:FALSE")
	}
	if pathLen >= 0 {
		fmt.Fprintf(&b, ", pathlen:%d", pathLen)
	}
	return b.String(), nil
}
