// Package login authenticates to Vault with the Cloud Foundry auth method.
//
// A login signs an assertion made of the current time, the instance
// certificate and the role with the instance private key, and exchanges it
// for a Vault token:
//
//	cf, err := login.NewCloudFoundry(login.Config{Role: "my-role"}, client)
//	token, err := cf.Login(ctx)
//
// Login never retries. A *LoginFailedError is the only failure worth retrying;
// every other error points at local misconfiguration.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/cfauth/internal/credentials"
	"github.com/wolfeidau/cfauth/internal/pki"
	"github.com/wolfeidau/cfauth/internal/telemetry"
	"github.com/wolfeidau/cfauth/internal/vault"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMountPath is the mount of the Cloud Foundry auth method.
	DefaultMountPath = "cf"

	// LoginPath is the login endpoint relative to /v1, templated with the mount.
	LoginPath = "auth/{mount}/login"

	tracerName = "github.com/wolfeidau/cfauth/internal/login"
)

// Transport posts a request body to a Vault path. *vault.Client implements it.
type Transport interface {
	Post(ctx context.Context, path string, pathParams map[string]string, body map[string]string) (*vault.Response, error)
}

// Config configures a Cloud Foundry login.
type Config struct {
	// Path is the auth method mount, DefaultMountPath when empty.
	Path string

	// Role is the Vault role to log in against. Required.
	Role string

	// Certificate and PrivateKey supply the instance credentials. They default
	// to the files Diego writes under credentials.DefaultDir. Both must be safe
	// for concurrent use if Login is called concurrently.
	Certificate credentials.Source
	PrivateKey  credentials.Source
}

// Option configures a CloudFoundry authenticator.
type Option func(*CloudFoundry)

// WithSigner replaces the RSA-PSS assertion signer.
func WithSigner(signer pki.AssertionSigner) Option {
	return func(c *CloudFoundry) {
		c.signer = signer
	}
}

// WithClock replaces the clock used for the signing time and token issue time.
func WithClock(now func() time.Time) Option {
	return func(c *CloudFoundry) {
		c.now = now
	}
}

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *CloudFoundry) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithMetrics replaces the global metric instruments.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *CloudFoundry) {
		c.metrics = m
	}
}

// CloudFoundry logs in to Vault with Cloud Foundry instance credentials. It is
// immutable after construction and safe for concurrent use.
type CloudFoundry struct {
	cfg       Config
	transport Transport
	signer    pki.AssertionSigner
	now       func() time.Time
	tracer    trace.Tracer
	metrics   *telemetry.Metrics
}

// NewCloudFoundry validates cfg, applies defaults and returns an authenticator
// sending requests through transport.
func NewCloudFoundry(cfg Config, transport Transport, opts ...Option) (*CloudFoundry, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}

	cfg.Role = strings.TrimSpace(cfg.Role)
	if cfg.Role == "" {
		return nil, errors.New("role is required")
	}

	cfg.Path = strings.Trim(strings.TrimSpace(cfg.Path), "/")
	if cfg.Path == "" {
		cfg.Path = DefaultMountPath
	}

	if cfg.Certificate == nil {
		cfg.Certificate = credentials.DefaultCertificate()
	}
	if cfg.PrivateKey == nil {
		cfg.PrivateKey = credentials.DefaultKey()
	}

	c := &CloudFoundry{
		cfg:       cfg,
		transport: transport,
		signer:    pki.NewRSAPSSSigner(),
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
		metrics:   telemetry.GetMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Config returns a copy of the validated configuration.
func (c *CloudFoundry) Config() Config {
	return c.cfg
}

// Login signs a fresh assertion and exchanges it for a Vault token. Errors are
// a *CredentialUnavailableError, a *pki.SigningError or a *LoginFailedError.
func (c *CloudFoundry) Login(ctx context.Context) (*Token, error) {
	started := time.Now()

	ctx, span := c.tracer.Start(ctx, "cloudfoundry.login", trace.WithAttributes(
		attribute.String("vault.auth.mount", c.cfg.Path),
		attribute.String("vault.auth.role", c.cfg.Role),
	))
	defer span.End()

	logger := log.With().
		Str("attempt", uuid.NewString()).
		Str("mount", c.cfg.Path).
		Str("role", c.cfg.Role).
		Logger()
	ctx = logger.WithContext(ctx)

	c.metrics.LoginAttemptsTotal.Add(ctx, 1)

	token, err := c.login(ctx)

	c.metrics.LoginDuration.Record(ctx, time.Since(started).Seconds())

	if err != nil {
		reason := FailureReason(err)
		c.metrics.LoginFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)

		logger.Debug().Err(err).Str("reason", reason).Msg("login failed")
		return nil, err
	}

	logger.Debug().
		Str("accessor", token.Accessor).
		Dur("lease", token.LeaseDuration).
		Bool("renewable", token.Renewable).
		Msg("login successful using CloudFoundry authentication")

	return token, nil
}

func (c *CloudFoundry) login(ctx context.Context) (*Token, error) {
	assertion, err := c.Assert(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Post(ctx, LoginPath, map[string]string{"mount": c.cfg.Path}, assertion.Request())
	if err != nil {
		return nil, &LoginFailedError{Mechanism: MechanismCloudFoundry, Err: err}
	}

	if resp == nil || resp.Auth == nil {
		return nil, &LoginFailedError{Mechanism: MechanismCloudFoundry, Err: vault.ErrMissingAuth}
	}

	token, err := newToken(resp.Auth, c.now())
	if err != nil {
		return nil, &LoginFailedError{Mechanism: MechanismCloudFoundry, Err: err}
	}

	return token, nil
}

// Assert fetches the instance credentials and signs an assertion for the
// current time without sending it. The certificate is fetched first and a
// failure there returns before the key is read.
func (c *CloudFoundry) Assert(ctx context.Context) (*Assertion, error) {
	certificate, err := fetch(ctx, c.cfg.Certificate, "certificate")
	if err != nil {
		return nil, err
	}

	key, err := fetch(ctx, c.cfg.PrivateKey, "private key")
	if err != nil {
		return nil, err
	}

	logIdentity(zerolog.Ctx(ctx), certificate)

	assertion := &Assertion{
		Role:        c.cfg.Role,
		SigningTime: FormatSigningTime(c.now()),
		Certificate: strings.TrimSpace(certificate),
	}

	signature, err := c.signer.Sign([]byte(assertion.Payload()), key)
	if err != nil {
		return nil, err
	}
	assertion.Signature = signature

	return assertion, nil
}

// FailureReason classifies a Login error for metrics and logs.
func FailureReason(err error) string {
	var (
		credErr   *CredentialUnavailableError
		decodeErr *pki.KeyDecodingError
		signErr   *pki.SigningError
		loginErr  *LoginFailedError
	)

	switch {
	case errors.As(err, &credErr):
		return "credential_unavailable"
	case errors.As(err, &decodeErr):
		return "key_decoding"
	case errors.As(err, &signErr):
		return "signing"
	case errors.As(err, &loginErr):
		return "login_failed"
	default:
		return "unknown"
	}
}

func fetch(ctx context.Context, src credentials.Source, name string) (string, error) {
	text, err := src.Fetch(ctx)
	if err != nil {
		return "", &CredentialUnavailableError{Credential: name, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return "", &CredentialUnavailableError{Credential: name, Err: ErrEmptyCredential}
	}

	return text, nil
}

func logIdentity(logger *zerolog.Logger, certificate string) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	id, err := pki.ParseInstanceIdentity(certificate)
	if err != nil {
		logger.Debug().Err(err).Msg("instance certificate not parsed")
		return
	}

	logger.Debug().
		Str("instance", id.InstanceID).
		Str("app", id.AppID).
		Str("space", id.SpaceID).
		Str("org", id.OrgID).
		Str("fingerprint", id.Fingerprint).
		Time("not_after", id.NotAfter).
		Msg("signing with instance identity")
}
