package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-invoice/internal/audit"
	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/customer"
	"github.com/noah-isme/backend-invoice/internal/dashboard"
	"github.com/noah-isme/backend-invoice/internal/events"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/lock"
	"github.com/noah-isme/backend-invoice/internal/notify"
	"github.com/noah-isme/backend-invoice/internal/payment"
	"github.com/noah-isme/backend-invoice/internal/ratelimit"
	"github.com/noah-isme/backend-invoice/internal/render"
	"github.com/noah-isme/backend-invoice/internal/resilience"
	"github.com/noah-isme/backend-invoice/internal/tasks"
	"github.com/noah-isme/backend-invoice/internal/user"
)

// Services is the assembled domain layer.
type Services struct {
	Auth        *auth.Service
	Users       *user.Service
	Customers   *customer.Service
	Invoices    *invoice.Service
	Render      *render.Service
	Payments    *payment.Service
	Webhook     payment.Webhook
	Sender      *tasks.Sender
	Dashboard   *dashboard.Service
	Audit       *audit.Service
	Events      *events.Bus
	Mailer      common.EmailSender
	AuthLimiter *limiter.Limiter
}

// NewServices wires every domain service against d.
func NewServices(ctx context.Context, d *Dependencies) (*Services, error) {
	cfg := d.Config

	mailer, err := NewMailer(cfg, d.Logger)
	if err != nil {
		return nil, err
	}
	authSvc, err := auth.NewService(auth.Config{
		Queries:         d.Store,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		ResetTokenTTL:   cfg.PasswordResetTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	bus := &events.Bus{Store: d.Store}
	notify.EmailNotifier{Mail: mailer, Owners: authSvc, Enabled: cfg.EmailEnabled}.Subscribe(bus)
	dash := &dashboard.Service{Q: d.Store, R: d.Redis, TTL: cfg.DashboardCacheTTL}
	customers := &customer.Service{Q: d.Store, Cache: dash}
	invoices := &invoice.Service{Store: d.Store, Events: bus, Cache: dash, DefaultCurrency: cfg.DefaultCurrency}

	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}
	renderer := &render.Service{Invoices: invoices, Customers: customers, Billers: authSvc, Archive: archive}

	providers, active := NewProviders(cfg)
	auditSvc := &audit.Service{Store: d.Store, Enabled: cfg.AuditEnabled}

	store, err := ratelimit.NewRedisStore(d.Redis, "rl:auth")
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	authLimiter, err := ratelimit.New(store, cfg.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_LOGIN: %w", err)
	}

	return &Services{
		Auth:      authSvc,
		Users:     &user.Service{Q: d.Store},
		Customers: customers,
		Invoices:  invoices,
		Render:    renderer,
		Payments: &payment.Service{
			Q:               d.Store,
			Invoices:        invoices,
			Customers:       customers,
			Provider:        active,
			Locker: lock.Locker{
				Client:       d.Redis,
				TTL:          cfg.LockTTL,
				RetryBackoff: cfg.LockRetryBackoff,
				MaxWait:      cfg.LockTTL,
			},
			LinkTTL:         cfg.PaymentLinkTTL,
			RedirectBaseURL: cfg.PublicBaseURL + "/invoices/",
			Events:          bus,
		},
		Webhook: payment.Webhook{
			Q:         d.Store,
			Invoices:  invoices,
			Providers: providers,
			Replay:    d.Redis,
			ReplayTTL: cfg.WebhookReplayTTL,
			Audit:     auditSvc,
		},
		Sender:      &tasks.Sender{Invoices: invoices, Customers: customers, Queue: d.Tasks, MaxRetry: cfg.TaskMaxRetry},
		Dashboard:   dash,
		Audit:       auditSvc,
		Events:      bus,
		Mailer:      mailer,
		AuthLimiter: authLimiter,
	}, nil
}

// NewMailer returns the Resend sender when email is enabled and a no-op
// sender otherwise.
func NewMailer(cfg *config.Config, logger zerolog.Logger) (common.EmailSender, error) {
	if !cfg.EmailEnabled {
		logger.Info().Msg("email delivery disabled")
		return common.NopEmailSender{}, nil
	}
	sender, err := notify.NewResendSender(notify.ResendConfig{
		APIKey:  cfg.ResendAPIKey,
		From:    cfg.EmailFrom,
		ReplyTo: cfg.EmailReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise resend: %w", err)
	}
	return sender, nil
}

// NewArchive returns the S3 archive when a bucket is configured.
func NewArchive(ctx context.Context, cfg *config.Config) (render.Archive, error) {
	if !cfg.ArchiveEnabled() {
		return render.NopArchive{}, nil
	}
	archive, err := render.NewS3Archive(ctx, render.ArchiveConfig{
		Bucket:          cfg.PDFArchiveBucket,
		Region:          cfg.PDFArchiveRegion,
		Endpoint:        cfg.PDFArchiveEndpoint,
		Prefix:          cfg.PDFArchivePrefix,
		AccessKeyID:     cfg.PDFArchiveKeyID,
		SecretAccessKey: cfg.PDFArchiveSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise pdf archive: %w", err)
	}
	return archive, nil
}

// NewProviders builds the webhook provider table and the provider used for
// new links. Only the configured provider accepts webhooks.
func NewProviders(cfg *config.Config) (map[string]payment.Provider, payment.Provider) {
	var active payment.Provider = payment.CloverMock{BaseURL: cfg.PublicBaseURL, WebhookSecret: cfg.CloverWebhookSecret}
	if cfg.PaymentProvider == "clover" {
		active = payment.Clover{
			BaseURL:       cfg.CloverBaseURL,
			MerchantID:    cfg.CloverMerchantID,
			PrivateKey:    cfg.CloverPrivateKey,
			WebhookSecret: cfg.CloverWebhookSecret,
			HTTP: resilience.NewHTTPClient("clover", resilience.Config{
				Timeout:       cfg.OutboundTimeout,
				BaseBackoff:   cfg.RetryBase,
				MaxAttempts:   cfg.RetryMaxAttempts,
				JitterPercent: cfg.RetryJitterPercent,
				MinRequests:   cfg.CircuitMinRequests,
				FailureRate:   cfg.CircuitFailureRate,
				OpenFor:       cfg.CircuitOpenFor,
			}),
		}
	}
	return map[string]payment.Provider{active.Name(): active}, active
}
