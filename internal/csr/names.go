package csr

import (
	"crypto/x509"
	"encoding/asn1"
)

const (
	FieldCommonName          = "common_name"
	FieldCountry             = "country"
	FieldState               = "state"
	FieldLocality            = "locality"
	FieldOrganization        = "organization"
	FieldOrganizationalUnit  = "organizational_unit"
	FieldEmailAddress        = "email_address"
	FieldDomainComponent     = "domain_component"
	FieldSurname             = "surname"
	FieldGivenName           = "given_name"
	FieldTitle               = "title"
	FieldSerialNumber        = "serial_number"
	FieldPseudonym           = "pseudonym"
	FieldGenerationQualifier = "generation_qualifier"
)

// attributeNames maps subject attribute OIDs to field names. Extend it to give an OID a
// friendly name; anything absent is reported by its dotted form.
var attributeNames = map[string]string{
	"2.5.4.3":                    FieldCommonName,
	"2.5.4.6":                    FieldCountry,
	"2.5.4.8":                    FieldState,
	"2.5.4.7":                    FieldLocality,
	"2.5.4.10":                   FieldOrganization,
	"2.5.4.11":                   FieldOrganizationalUnit,
	"1.2.840.113549.1.9.1":       FieldEmailAddress,
	"0.9.2342.19200300.100.1.25": FieldDomainComponent,
	"2.5.4.4":                    FieldSurname,
	"2.5.4.42":                   FieldGivenName,
	"2.5.4.12":                   FieldTitle,
	"2.5.4.5":                    FieldSerialNumber,
	"2.5.4.65":                   FieldPseudonym,
	"2.5.4.44":                   FieldGenerationQualifier,
}

var fieldLabels = map[string]string{
	FieldCommonName:          "Common Name (CN)",
	FieldCountry:             "Country (C)",
	FieldState:               "State/Province (ST)",
	FieldLocality:            "Locality (L)",
	FieldOrganization:        "Organization (O)",
	FieldOrganizationalUnit:  "Organizational Unit (OU)",
	FieldEmailAddress:        "Email Address",
	FieldDomainComponent:     "Domain Component (DC)",
	FieldSurname:             "Surname",
	FieldGivenName:           "Given Name",
	FieldTitle:               "Title",
	FieldSerialNumber:        "Serial Number",
	FieldPseudonym:           "Pseudonym",
	FieldGenerationQualifier: "Generation Qualifier",
}

func attributeName(oid asn1.ObjectIdentifier) string {
	dotted := oid.String()
	if name, ok := attributeNames[dotted]; ok {
		return name
	}
	return dotted
}

var signatureAlgorithmNames = map[x509.SignatureAlgorithm]string{
	x509.MD5WithRSA:       "md5WithRSAEncryption",
	x509.SHA1WithRSA:      "sha1WithRSAEncryption",
	x509.SHA256WithRSA:    "sha256WithRSAEncryption",
	x509.SHA384WithRSA:    "sha384WithRSAEncryption",
	x509.SHA512WithRSA:    "sha512WithRSAEncryption",
	x509.SHA256WithRSAPSS: "RSASSA-PSS",
	x509.SHA384WithRSAPSS: "RSASSA-PSS",
	x509.SHA512WithRSAPSS: "RSASSA-PSS",
	x509.DSAWithSHA1:      "dsa-with-sha1",
	x509.DSAWithSHA256:    "dsa-with-sha256",
	x509.ECDSAWithSHA1:    "ecdsa-with-SHA1",
	x509.ECDSAWithSHA256:  "ecdsa-with-SHA256",
	x509.ECDSAWithSHA384:  "ecdsa-with-SHA384",
	x509.ECDSAWithSHA512:  "ecdsa-with-SHA512",
	x509.PureEd25519:      "ed25519",
}

func signatureAlgorithmName(alg x509.SignatureAlgorithm) string {
	if name, ok := signatureAlgorithmNames[alg]; ok {
		return name
	}
	return alg.String()
}

var curveNames = map[string]string{
	"P-224": "secp224r1",
	"P-256": "secp256r1",
	"P-384": "secp384r1",
	"P-521": "secp521r1",
}

// keyUsageNames lists the KeyUsage bits in their ASN.1 bit order.
var keyUsageNames = []string{
	"digitalSignature",
	"contentCommitment",
	"keyEncipherment",
	"dataEncipherment",
	"keyAgreement",
	"keyCertSign",
	"cRLSign",
	"encipherOnly",
	"decipherOnly",
}

var extKeyUsageNames = map[string]string{
	"2.5.29.37.0":                "anyExtendedKeyUsage",
	"1.3.6.1.5.5.7.3.1":          "serverAuth",
	"1.3.6.1.5.5.7.3.2":          "clientAuth",
	"1.3.6.1.5.5.7.3.3":          "codeSigning",
	"1.3.6.1.5.5.7.3.4":          "emailProtection",
	"1.3.6.1.5.5.7.3.8":          "timeStamping",
	"1.3.6.1.5.5.7.3.9":          "OCSPSigning",
	"1.3.6.1.4.1.311.20.2.2":     "smartcardLogon",
	"1.3.6.1.4.1.311.10.3.4":     "encryptingFileSystem",
	"1.3.6.1.5.2.3.5":            "kerberosPKINITKDC",
	"1.3.6.1.4.1.311.10.3.12":    "documentSigning",
	"1.3.6.1.4.1.311.21.6":       "keyRecoveryAgent",
	"1.3.6.1.4.1.311.10.3.4.1":   "fileRecovery",
	"1.3.6.1.4.1.311.20.2.1":     "certificateRequestAgent",
	"1.3.6.1.4.1.311.10.3.1":     "microsoftTrustListSigning",
	"1.3.6.1.4.1.311.61.1.1":     "kernelModeCodeSigning",
	"1.3.6.1.4.1.311.10.3.11":    "keyRecovery",
	"1.3.6.1.4.1.311.2.1.21":     "individualCodeSigning",
	"1.3.6.1.4.1.311.2.1.22":     "commercialCodeSigning",
	"1.3.6.1.4.1.311.10.3.13":    "lifetimeSigning",
	"1.3.6.1.5.5.8.2.2":          "ipsecIKEIntermediate",
	"1.3.6.1.5.5.7.3.17":         "ipsecIKE",
	"1.3.6.1.4.1.311.54.1.2":     "remoteDesktopAuthentication",
	"1.3.6.1.4.1.311.21.5":       "caExchange",
	"1.3.6.1.4.1.311.10.3.4.1.1": "efsRecovery",
}

func extKeyUsageName(oid asn1.ObjectIdentifier) string {
	dotted := oid.String()
	if name, ok := extKeyUsageNames[dotted]; ok {
		return name
	}
	return dotted
}
