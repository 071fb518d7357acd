package handlers

import (
	"time"

	"cryptoforge/internal/csr"
)

type CSRBody struct {
	CSR string `json:"csr"`
}

type ValidateCSRResponse struct {
	Valid bool `json:"valid"`
}

type ParseCSRResponse struct {
	*csr.ParsedCSR
	SubjectDisplay []csr.Field `json:"subject_display"`
}

type SignBody struct {
	CSR          string `json:"csr"`
	Template     string `json:"template"`
	Encoding     string `json:"encoding"`
	Server       string `json:"server"`
	SecretPath   string `json:"secret_path"`
	IncludeChain *bool  `json:"include_chain"`
}

// EnrollmentResponse renders an outcome. Binary payloads are base64 encoded; b64 payloads
// are returned as the PEM text the server sent.
type EnrollmentResponse struct {
	Status      string `json:"status"`
	RequestID   string `json:"request_id,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	Certificate string `json:"certificate,omitempty"`
	Chain       string `json:"chain,omitempty"`
	ChainError  string `json:"chain_error,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
}

type CredentialsBody struct {
	SecretPath string `json:"secret_path"`
}

type CredentialsResponse struct {
	Valid bool `json:"valid"`
}

type SecretsResponse struct {
	Path string   `json:"path"`
	Keys []string `json:"keys"`
}

type ChainEntry struct {
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	SerialNumber string    `json:"serial_number"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	IsCA         bool      `json:"is_ca"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}
