// Package signing runs complete CSR signing attempts: credential lookup, submission,
// certificate and chain retrieval, and bookkeeping for requests left pending.
package signing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"cryptoforge/internal/config"
	"cryptoforge/internal/csr"
	"cryptoforge/internal/data"
	"cryptoforge/internal/enrollment"
	"cryptoforge/internal/metrics"
	"cryptoforge/internal/secrets"
)

//go:generate mockgen -source=service.go -destination=../mocks/signing.go -package=mocks

var ErrInvalidRequest = errors.New("invalid signing request")

var requestIDPattern = regexp.MustCompile(`^\d+$`)

// EnrollmentClient is the per-attempt session with the enrollment server.
type EnrollmentClient interface {
	CheckCredentials(ctx context.Context) (bool, error)
	Submit(ctx context.Context, csrPEM, template string, enc enrollment.Encoding) (enrollment.Outcome, error)
	Poll(ctx context.Context, requestID string, enc enrollment.Encoding) (enrollment.Outcome, error)
	GetChain(ctx context.Context, enc enrollment.Encoding) ([]byte, error)
	GetCACert(ctx context.Context, enc enrollment.Encoding) ([]byte, error)
}

// ClientFactory opens a fresh enrollment session for one credential. An empty server
// selects the configured one.
type ClientFactory func(server string, cred secrets.Credential) (EnrollmentClient, error)

// Signer is what the HTTP layer depends on.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) (*Result, error)
	Poll(ctx context.Context, requestID, secretPath string) (*Result, error)
	PendingRequests(ctx context.Context) ([]data.PendingRequest, error)
	Chain(ctx context.Context, secretPath string, enc enrollment.Encoding) ([]byte, error)
	CACertificate(ctx context.Context, secretPath string, enc enrollment.Encoding) ([]byte, error)
	CheckCredentials(ctx context.Context, secretPath string) (bool, error)
	ListSecrets(ctx context.Context, path string) ([]string, error)
	Templates() []config.Template
}

type SignRequest struct {
	CSR          string
	Template     string
	Encoding     enrollment.Encoding
	Server       string
	SecretPath   string
	IncludeChain bool
}

// Result wraps the enrollment outcome. A chain that could not be fetched is reported in
// ChainError without discarding an issued certificate.
type Result struct {
	Outcome    enrollment.Outcome
	Encoding   enrollment.Encoding
	Chain      []byte
	ChainError string
}

type Options struct {
	Retriever       secrets.Retriever
	Lister          secrets.Lister
	NewClient       ClientFactory
	Pending         data.PendingStore
	Templates       []config.Template
	DefaultPath     string
	DefaultTemplate string
	DefaultEncoding enrollment.Encoding
	Logger          *slog.Logger

	// AllowedServers may be named by a caller. The configured server is always allowed.
	AllowedServers []string
	// AllowedSecretPrefixes bound the secret paths a caller may name. When empty only
	// DefaultPath is allowed.
	AllowedSecretPrefixes []string
}

type Service struct {
	retriever       secrets.Retriever
	lister          secrets.Lister
	newClient       ClientFactory
	pending         data.PendingStore
	templates       []config.Template
	defaultPath     string
	defaultTemplate string
	defaultEncoding enrollment.Encoding
	allowedServers  map[string]struct{}
	secretPrefixes  []string
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(opts Options) *Service {
	enc := opts.DefaultEncoding
	if enc == "" {
		enc = enrollment.EncodingBase64
	}
	servers := make(map[string]struct{}, len(opts.AllowedServers))
	for _, server := range opts.AllowedServers {
		servers[serverKey(server)] = struct{}{}
	}

	var prefixes []string
	for _, prefix := range opts.AllowedSecretPrefixes {
		if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 && opts.DefaultPath != "" {
		prefixes = []string{strings.Trim(opts.DefaultPath, "/")}
	}

	return &Service{
		retriever:       opts.Retriever,
		lister:          opts.Lister,
		newClient:       opts.NewClient,
		pending:         opts.Pending,
		templates:       opts.Templates,
		defaultPath:     opts.DefaultPath,
		defaultTemplate: opts.DefaultTemplate,
		defaultEncoding: enc,
		allowedServers:  servers,
		secretPrefixes:  prefixes,
		logger:          opts.Logger,
		now:             time.Now,
	}
}

// NewClientFactory builds enrollment sessions from the configured server and auth method.
func NewClientFactory(cfg config.EnrollmentConfig, logger *slog.Logger) ClientFactory {
	return func(server string, cred secrets.Credential) (EnrollmentClient, error) {
		if server == "" {
			server = cfg.Server
		}
		return enrollment.New(enrollment.Options{
			Server:     server,
			AuthMethod: enrollment.AuthMethod(cfg.AuthMethod),
			Username:   cred.Username,
			Password:   cred.Password,
			Timeout:    cfg.Timeout,
			Logger:     logger,
		})
	}
}

func (s *Service) Templates() []config.Template {
	return s.templates
}

// Sign submits one CSR. Denied, pending and retrieval failures come back as a Result;
// the error is reserved for invalid input, secret store and transport failures.
func (s *Service) Sign(ctx context.Context, req SignRequest) (*Result, error) {
	if !csr.ValidateFormat(req.CSR) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, csr.ErrFormat)
	}
	parsed, err := csr.Parse(req.CSR)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	template := strings.TrimSpace(req.Template)
	if template == "" {
		template = s.defaultTemplate
	}
	if !s.knownTemplate(template) {
		return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidRequest, template)
	}

	enc := req.Encoding
	if enc == "" {
		enc = s.defaultEncoding
	}
	secretPath := s.secretPath(req.SecretPath)

	client, err := s.openClient(ctx, req.Server, secretPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := client.Submit(ctx, req.CSR, template, enc)
	metrics.EnrollmentDuration.WithLabelValues(metrics.EnrollmentOpSubmit).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrollmentErrors.WithLabelValues(metrics.EnrollmentOpSubmit).Inc()
		return nil, err
	}
	metrics.EnrollmentOutcomes.WithLabelValues(metrics.EnrollmentOpSubmit, string(outcome.Kind)).Inc()

	logger := s.logger.With("template", template, "outcome", outcome.Kind, "request_id", outcome.RequestID)
	result := &Result{Outcome: outcome, Encoding: enc}

	switch outcome.Kind {
	case enrollment.OutcomeIssued:
		logger.Info("certificate issued")
		if req.IncludeChain {
			s.attachChain(ctx, client, enc, result)
		}
	case enrollment.OutcomePending:
		logger.Info("certificate request pending approval")
		s.recordPending(ctx, data.PendingRequest{
			RequestID:   outcome.RequestID,
			Server:      req.Server,
			Template:    template,
			SecretPath:  secretPath,
			Encoding:    string(enc),
			CommonName:  commonName(parsed),
			SubmittedAt: s.now().UTC(),
		})
	case enrollment.OutcomeDenied:
		logger.Warn("certificate request denied")
	default:
		logger.Warn("certificate could not be retrieved", "reason", outcome.Reason)
	}

	return result, nil
}

// Poll collects a pending request. Resolved requests leave the ledger.
func (s *Service) Poll(ctx context.Context, requestID, secretPath string) (*Result, error) {
	if !requestIDPattern.MatchString(requestID) {
		return nil, fmt.Errorf("%w: request id must be numeric", ErrInvalidRequest)
	}

	entry, err := s.pending.Get(ctx, requestID)
	switch {
	case errors.Is(err, data.ErrPendingNotFound):
		entry = data.PendingRequest{RequestID: requestID, Encoding: string(s.defaultEncoding)}
	case err != nil:
		return nil, err
	}
	if secretPath == "" {
		secretPath = entry.SecretPath
	}
	secretPath = s.secretPath(secretPath)

	enc, err := enrollment.ParseEncoding(entry.Encoding)
	if err != nil {
		enc = s.defaultEncoding
	}

	client, err := s.openClient(ctx, entry.Server, secretPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := client.Poll(ctx, requestID, enc)
	metrics.EnrollmentDuration.WithLabelValues(metrics.EnrollmentOpPoll).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrollmentErrors.WithLabelValues(metrics.EnrollmentOpPoll).Inc()
		return nil, err
	}
	metrics.EnrollmentOutcomes.WithLabelValues(metrics.EnrollmentOpPoll, string(outcome.Kind)).Inc()

	switch outcome.Kind {
	case enrollment.OutcomeIssued, enrollment.OutcomeDenied:
		s.logger.Info("pending request resolved", "request_id", requestID, "outcome", outcome.Kind)
		if err := s.pending.Delete(ctx, requestID); err != nil {
			s.logger.Error("failed to remove resolved request from ledger", "request_id", requestID, "error", err)
		}
	default:
		entry.LastCheckedAt = s.now().UTC()
		if entry.SubmittedAt.IsZero() {
			entry.SubmittedAt = entry.LastCheckedAt
		}
		if entry.SecretPath == "" {
			entry.SecretPath = secretPath
		}
		s.recordPending(ctx, entry)
	}

	return &Result{Outcome: outcome, Encoding: enc}, nil
}

func (s *Service) PendingRequests(ctx context.Context) ([]data.PendingRequest, error) {
	return s.pending.List(ctx)
}

// PollPending re-checks every ledger entry once. Failures are logged and skipped.
func (s *Service) PollPending(ctx context.Context) error {
	entries, err := s.pending.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := s.Poll(ctx, entry.RequestID, entry.SecretPath)
		if err != nil {
			s.logger.Warn("failed to poll pending request", "request_id", entry.RequestID, "error", err)
			continue
		}
		s.logger.Debug("polled pending request", "request_id", entry.RequestID, "outcome", result.Outcome.Kind)
	}
	return nil
}

func (s *Service) Chain(ctx context.Context, secretPath string, enc enrollment.Encoding) ([]byte, error) {
	client, err := s.openClient(ctx, "", s.secretPath(secretPath))
	if err != nil {
		return nil, err
	}
	return instrument(metrics.EnrollmentOpChain, func() ([]byte, error) {
		return client.GetChain(ctx, s.encoding(enc))
	})
}

func (s *Service) CACertificate(ctx context.Context, secretPath string, enc enrollment.Encoding) ([]byte, error) {
	client, err := s.openClient(ctx, "", s.secretPath(secretPath))
	if err != nil {
		return nil, err
	}
	return instrument(metrics.EnrollmentOpCACert, func() ([]byte, error) {
		return client.GetCACert(ctx, s.encoding(enc))
	})
}

func (s *Service) CheckCredentials(ctx context.Context, secretPath string) (bool, error) {
	client, err := s.openClient(ctx, "", s.secretPath(secretPath))
	if err != nil {
		return false, err
	}

	start := time.Now()
	ok, err := client.CheckCredentials(ctx)
	metrics.EnrollmentDuration.WithLabelValues(metrics.EnrollmentOpCheck).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrollmentErrors.WithLabelValues(metrics.EnrollmentOpCheck).Inc()
	}
	return ok, err
}

// ListSecrets names the credentials stored below a secret store folder.
func (s *Service) ListSecrets(ctx context.Context, path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: a secret folder is required", ErrInvalidRequest)
	}
	if !s.secretAllowed(path) {
		return nil, fmt.Errorf("%w: secret path %q is not allowed", ErrInvalidRequest, path)
	}
	if s.lister == nil {
		return nil, &secrets.SecretError{Path: path, Reason: "secret store does not support listing"}
	}
	return s.lister.ListSecrets(ctx, path)
}

// openClient fetches the credential for this attempt only. Nothing is cached.
func (s *Service) openClient(ctx context.Context, server, secretPath string) (EnrollmentClient, error) {
	if err := s.authorize(server, secretPath); err != nil {
		s.logger.Warn("rejected enrollment target", "server", server, "path", secretPath, "error", err)
		return nil, err
	}

	cred, err := s.retriever.GetCredential(ctx, secretPath)
	if err != nil {
		metrics.SecretFetches.WithLabelValues(metrics.SecretResultError).Inc()
		s.logger.Warn("failed to fetch enrollment credential", "path", secretPath, "error", err)
		return nil, err
	}
	metrics.SecretFetches.WithLabelValues(metrics.SecretResultSuccess).Inc()

	return s.newClient(server, cred)
}

// authorize runs before any credential is read. The credential is sent to server, so
// both the server and the secret must be on the configured allow lists.
func (s *Service) authorize(server, secretPath string) error {
	if strings.TrimSpace(server) != "" {
		if _, ok := s.allowedServers[serverKey(server)]; !ok {
			return fmt.Errorf("%w: enrollment server %q is not allowed", ErrInvalidRequest, server)
		}
	}
	if !s.secretAllowed(secretPath) {
		return fmt.Errorf("%w: secret path %q is not allowed", ErrInvalidRequest, secretPath)
	}
	return nil
}

func (s *Service) secretAllowed(path string) bool {
	p := strings.Trim(strings.TrimSpace(path), "/")
	if p == "" {
		return false
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}
	for _, prefix := range s.secretPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// serverKey folds the spellings the enrollment client treats as the same endpoint.
func serverKey(server string) string {
	key := strings.ToLower(strings.TrimSpace(server))
	key = strings.TrimPrefix(key, "https://")
	return strings.TrimRight(key, "/")
}

func (s *Service) attachChain(ctx context.Context, client EnrollmentClient, enc enrollment.Encoding, result *Result) {
	chain, err := instrument(metrics.EnrollmentOpChain, func() ([]byte, error) {
		return client.GetChain(ctx, enc)
	})
	if err != nil {
		s.logger.Warn("certificate issued but chain retrieval failed", "request_id", result.Outcome.RequestID, "error", err)
		result.ChainError = err.Error()
		return
	}
	result.Chain = chain
}

func (s *Service) recordPending(ctx context.Context, entry data.PendingRequest) {
	if err := s.pending.Put(ctx, entry); err != nil {
		s.logger.Error("failed to record pending request", "request_id", entry.RequestID, "error", err)
	}
}

func (s *Service) knownTemplate(id string) bool {
	if id == "" {
		return false
	}
	if len(s.templates) == 0 {
		return true
	}
	for _, t := range s.templates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) secretPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return s.defaultPath
	}
	return path
}

func (s *Service) encoding(enc enrollment.Encoding) enrollment.Encoding {
	if enc == "" {
		return s.defaultEncoding
	}
	return enc
}

func instrument(op string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	metrics.EnrollmentDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrollmentErrors.WithLabelValues(op).Inc()
	}
	return out, err
}

func commonName(parsed *csr.ParsedCSR) string {
	cn, _ := parsed.Subject.Get(csr.FieldCommonName)
	return cn
}
