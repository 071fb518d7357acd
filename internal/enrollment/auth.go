package enrollment

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/Azure/go-ntlmssp"
)

type AuthMethod string

const (
	AuthBasic AuthMethod = "basic"
	AuthNTLM  AuthMethod = "ntlm"
	// AuthCert treats the username as a client certificate file and the password as
	// its private key file.
	AuthCert AuthMethod = "cert"
)

// newTransport layers the chosen authentication over base. base is owned by the caller's
// client and may be modified.
func newTransport(method AuthMethod, username, password string, base *http.Transport) (http.RoundTripper, error) {
	switch method {
	case AuthBasic:
		return &basicAuthTransport{Username: username, Password: password, Proxied: base}, nil
	case AuthNTLM:
		// The negotiator takes its credentials from the request's basic auth header.
		return &basicAuthTransport{
			Username: username,
			Password: password,
			Proxied:  ntlmssp.Negotiator{RoundTripper: base},
		}, nil
	case AuthCert:
		cert, err := tls.LoadX509KeyPair(username, password)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load client certificate: %v", ErrAuthConfig, err)
		}
		if base.TLSClientConfig == nil {
			base.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		base.TLSClientConfig.Certificates = []tls.Certificate{cert}
		return base, nil
	default:
		return nil, fmt.Errorf("%w: unknown authentication method %q", ErrAuthConfig, method)
	}
}

type basicAuthTransport struct {
	Username string
	Password string
	Proxied  http.RoundTripper
}

func (b *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(b.Username, b.Password)
	return b.Proxied.RoundTrip(req)
}
