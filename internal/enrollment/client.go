// Package enrollment talks to the Microsoft ADCS web enrollment pages (certsrv). certsrv
// has no structured API, so outcomes are recovered from HTML bodies and content types.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodySize = 10 << 20

	pathRoot        = "/certsrv/"
	pathSubmit      = "/certsrv/certfnsh.asp"
	pathCertificate = "/certsrv/certnew.cer"
	pathChain       = "/certsrv/certnew.p7b"
	pathCACertPage  = "/certsrv/certcarc.asp"
)

var (
	certificateContentTypes = []string{"application/pkix-cert", "application/x-x509-ca-cert"}
	chainContentTypes       = []string{"application/x-pkcs7-certificates"}
)

var (
	pemHeaderPattern = regexp.MustCompile(`-----BEGIN.*?-----`)
	pemFooterPattern = regexp.MustCompile(`-----END.*?-----`)
	whitespace       = regexp.MustCompile(`\s+`)
)

type Options struct {
	// Server is a host name or base URL. A bare host is reached over https.
	Server     string
	AuthMethod AuthMethod
	Username   string
	Password   string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client holds one authenticated session with a certsrv server. Each signing attempt
// builds its own Client so cookies and credentials are never shared between callers.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// New prepares an authenticated session. No request is made until the first call.
func New(opts Options) (*Client, error) {
	baseURL, err := normalizeServer(opts.Server)
	if err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	transport, err := newTransport(opts.AuthMethod, opts.Username, opts.Password, base)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		logger: logger.With("component", "enrollment", "server", baseURL.Host),
	}, nil
}

func normalizeServer(server string) (*url.URL, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("%w: enrollment server is required", ErrAuthConfig)
	}
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}

	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid enrollment server %q", ErrAuthConfig, server)
	}
	return u, nil
}

// CheckCredentials reports false only for HTTP 401. Every other failure is an error.
func (c *Client) CheckCredentials(ctx context.Context) (bool, error) {
	_, err := c.get(ctx, "check credentials", pathRoot, nil)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Submit sends csrPEM for signing under template. The returned error is reserved for
// transport failures; denial, pending approval and retrieval problems are outcomes.
func (c *Client) Submit(ctx context.Context, csrPEM, template string, enc Encoding) (Outcome, error) {
	form := url.Values{
		"Mode":             {"newreq"},
		"CertRequest":      {stripPEM(csrPEM)},
		"CertAttrib":       {"CertificateTemplate:" + template},
		"TargetStoreFlags": {"0"},
		"SaveCert":         {"yes"},
	}

	resp, err := c.do(ctx, "submit", http.MethodPost, pathSubmit, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, err
	}
	body := string(resp.body)

	v, ruleName := classify(submissionRules, body)
	c.logger.Debug("classified submission response", "rule", ruleName, "template", template)

	switch v.action {
	case actionDenied:
		return Outcome{Kind: OutcomeDenied, Message: body}, nil
	case actionPending:
		return Outcome{Kind: OutcomePending, RequestID: v.requestID}, nil
	case actionFailed:
		return Outcome{Kind: OutcomeRetrievalFailed, Reason: v.reason, Message: body}, nil
	}

	cert, err := c.GetExisting(ctx, v.requestID, enc)
	if err != nil {
		var re *RetrievalError
		if errors.As(err, &re) {
			return Outcome{Kind: OutcomeRetrievalFailed, RequestID: v.requestID, Reason: re.Reason, Message: re.Body}, nil
		}
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeIssued, Certificate: cert, RequestID: v.requestID}, nil
}

// GetExisting fetches a certificate by request id. Only the declared content type counts
// as success; certsrv serves HTML error pages with status 200.
func (c *Client) GetExisting(ctx context.Context, requestID string, enc Encoding) ([]byte, error) {
	query := url.Values{"ReqID": {requestID}, "Enc": {string(enc)}}
	resp, err := c.get(ctx, "get certificate", pathCertificate, query)
	if err != nil {
		return nil, err
	}
	if err := resp.expect(certificateContentTypes...); err != nil {
		return nil, err
	}
	return resp.body, nil
}

// Poll re-checks a request that was left pending and classifies whatever comes back.
func (c *Client) Poll(ctx context.Context, requestID string, enc Encoding) (Outcome, error) {
	cert, err := c.GetExisting(ctx, requestID, enc)
	if err == nil {
		return Outcome{Kind: OutcomeIssued, Certificate: cert, RequestID: requestID}, nil
	}

	var re *RetrievalError
	if !errors.As(err, &re) {
		return Outcome{}, err
	}

	v, ruleName := classify(pollRules, re.Body)
	c.logger.Debug("classified poll response", "rule", ruleName, "request_id", requestID)

	switch v.action {
	case actionDenied:
		return Outcome{Kind: OutcomeDenied, RequestID: requestID, Message: re.Body}, nil
	case actionPending:
		return Outcome{Kind: OutcomePending, RequestID: requestID}, nil
	default:
		return Outcome{Kind: OutcomeRetrievalFailed, RequestID: requestID, Reason: re.Reason, Message: re.Body}, nil
	}
}

// GetChain fetches the CA chain as a PKCS#7 bundle.
func (c *Client) GetChain(ctx context.Context, enc Encoding) ([]byte, error) {
	query := url.Values{"ReqID": {"CACert"}, "Enc": {string(enc)}}
	resp, err := c.get(ctx, "get chain", pathChain, query)
	if err != nil {
		return nil, err
	}
	if err := resp.expect(chainContentTypes...); err != nil {
		return nil, err
	}
	return resp.body, nil
}

// GetCACert scrapes the current renewal index from certcarc.asp, then downloads the CA
// certificate for it. The second request depends on the first.
func (c *Client) GetCACert(ctx context.Context, enc Encoding) ([]byte, error) {
	page, err := c.get(ctx, "get CA page", pathCACertPage, nil)
	if err != nil {
		return nil, err
	}

	m := renewalIndexPattern.FindStringSubmatch(string(page.body))
	if m == nil {
		return nil, page.retrievalError("could not find the CA renewal index")
	}

	query := url.Values{"ReqID": {"CACert"}, "Renewal": {m[1]}, "Enc": {string(enc)}}
	resp, err := c.get(ctx, "get CA certificate", pathCertificate, query)
	if err != nil {
		return nil, err
	}
	if err := resp.expect(certificateContentTypes...); err != nil {
		return nil, err
	}
	return resp.body, nil
}

func stripPEM(csrPEM string) string {
	s := pemHeaderPattern.ReplaceAllString(csrPEM, "")
	s = pemFooterPattern.ReplaceAllString(s, "")
	return whitespace.ReplaceAllString(s, "")
}

type response struct {
	statusCode  int
	contentType string
	body        []byte
}

// expect fails with a RetrievalError unless the media type is one of types.
func (r *response) expect(types ...string) error {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	if err == nil {
		for _, t := range types {
			if strings.EqualFold(mediaType, t) {
				return nil
			}
		}
	}
	return r.retrievalError(fmt.Sprintf("unexpected content type %q", r.contentType))
}

func (r *response) retrievalError(reason string) *RetrievalError {
	return &RetrievalError{
		Reason:      reason,
		StatusCode:  r.statusCode,
		ContentType: r.contentType,
		Body:        string(r.body),
	}
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) (*response, error) {
	return c.do(ctx, op, http.MethodGet, path, query, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader) (*response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("enrollment request failed", "op", op, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("enrollment request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	return &response{
		statusCode:  resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}
