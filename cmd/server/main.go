package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	addresshandler "account-service/internal/address/handler"
	addressrepo "account-service/internal/address/repository"
	addressservice "account-service/internal/address/service"
	adminhandler "account-service/internal/admin/handler"
	"account-service/internal/config"
	"account-service/internal/db"
	"account-service/internal/devotp"
	healthhandler "account-service/internal/health/handler"
	"account-service/internal/identifier"
	identityhandler "account-service/internal/identity/handler"
	identityrepo "account-service/internal/identity/repository"
	identityservice "account-service/internal/identity/service"
	"account-service/internal/logging"
	"account-service/internal/notify"
	"account-service/internal/notify/mail"
	"account-service/internal/notify/sms"
	"account-service/internal/otp"
	otprepo "account-service/internal/otp/repository"
	resethandler "account-service/internal/passwordreset/handler"
	resetservice "account-service/internal/passwordreset/service"
	policyengine "account-service/internal/policy/engine"
	"account-service/internal/security"
	"account-service/internal/server"
	sessionrepo "account-service/internal/session/repository"
	"account-service/internal/telemetry"
	telemetryotel "account-service/internal/telemetry/otel"
	"account-service/internal/telemetry/producer"
	userhandler "account-service/internal/user/handler"
	userrepo "account-service/internal/user/repository"
)

const (
	serviceName     = "account-service"
	shutdownTimeout = 10 * time.Second
	resetLockTTL    = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	kafkaProducer := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	var emitters telemetry.Fanout
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}
	if cfg.OTLPEndpoint != "" {
		emitters = append(emitters, telemetryotel.NewEventEmitter(providers.LoggerProvider))
	}
	var emitter telemetry.EventEmitter
	if len(emitters) > 0 {
		emitter = emitters
	}

	tokens, err := security.NewTokenProviderFromPEM(security.TokenProviderOptions{
		PrivateKey:     cfg.JWTPrivateKey,
		PublicKey:      cfg.JWTPublicKey,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
		TTL:            cfg.TokenTTL(),
		AllowEphemeral: !cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	if cfg.JWTPrivateKey == "" {
		logger.Warn("JWT keys not configured; using an ephemeral key pair, tokens will not survive a restart")
	}

	policy, err := newPolicy(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("reset policy: %w", err)
	}

	users := userrepo.NewPostgresRepository(conn)
	identities := identityrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	resolver := identifier.NewResolver(users)
	hasher := security.NewHasher(cfg.BcryptCost)

	auth := identityservice.NewAuthService(users, identities, sessions, resolver, hasher, tokens, logger)
	addresses := addressservice.New(addressrepo.NewPostgresRepository(conn))

	var devStore *devotp.MemoryStore
	var notifier notify.Deliverer
	if cfg.OTPReturnToClient {
		devStore = devotp.NewMemoryStore()
		notifier = devotp.NewSink(devStore, otprepo.DefaultTTL, logger)
		logger.Warn("dev otp mode enabled: reset codes are not sent and can be read from GET /dev/otp")
	} else {
		notifier = newDispatcher(cfg, logger)
	}

	locker, closeLocker := newLocker(cfg, logger)
	defer closeLocker()

	reset := resetservice.New(resetservice.Deps{
		Users:       resolver,
		Codes:       otp.NewService(otprepo.NewPostgresRepository(conn), otp.NewGenerator(cfg.OTPZeroPadded)),
		Notifier:    notifier,
		Hasher:      hasher,
		Credentials: identities,
		Policy:      policy,
		Locker:      locker,
		Metrics:     resetservice.NewMetrics(prometheus.DefaultRegisterer),
		Log:         logger,
	})

	opts := server.RouterOptions{
		Auth:          identityhandler.New(auth, logger),
		PasswordReset: resethandler.New(reset, logger),
		Users:         userhandler.New(users, logger),
		Addresses:     addresshandler.New(addresses, logger),
		Admin:         adminhandler.New(users, addresses, logger),
		Health: healthhandler.New(map[string]healthhandler.Check{
			"database": pingCheck(conn),
			"policy":   policy.HealthCheck,
		}, logger),
		Authenticator:  auth,
		StaffUsers:     users,
		Emitter:        emitter,
		AllowedOrigins: cfg.CORSAllowedOriginsList(),
		Log:            logger,
	}
	if devStore != nil {
		opts.DevOTP = devotp.NewHandler(devStore)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout+telemetry.ShutdownDrainDuration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	if emitter != nil {
		time.Sleep(telemetry.ShutdownDrainDuration)
	}
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn("kafka producer close", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
	return nil
}

func newPolicy(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*policyengine.OPAEvaluator, error) {
	if cfg.ResetPolicyFile != "" {
		logger.Info("loading reset policy", zap.String("path", cfg.ResetPolicyFile))
		return policyengine.NewOPAEvaluatorFromFile(ctx, cfg.ResetPolicyFile, logger)
	}
	return policyengine.NewOPAEvaluator(ctx, policyengine.DefaultResetPolicy, logger)
}

// newDispatcher wires the configured transports. A missing transport makes
// delivery on that channel fail with notify.ErrDelivery.
func newDispatcher(cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	var mailer notify.MailSender
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		logger.Warn("SMTP_HOST not set; email reset codes cannot be delivered")
	}
	var texter notify.SMSSender
	if cfg.TwilioAccountSID != "" {
		texter = sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioBaseURL, logger)
	} else {
		logger.Warn("TWILIO_ACCOUNT_SID not set; SMS reset codes cannot be delivered")
	}
	return notify.NewDispatcher(mailer, texter, cfg.MailFrom, logger)
}

// newLocker returns a Redis lock when REDIS_ADDR is set, otherwise nil so the
// reset service falls back to its in-process lock.
func newLocker(cfg *config.Config, logger *zap.Logger) (resetservice.Locker, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	logger.Info("using redis reset lock", zap.String("addr", cfg.RedisAddr))
	return resetservice.NewRedisLocker(client, resetLockTTL, logger), func() { _ = client.Close() }
}

func pingCheck(conn *sql.DB) healthhandler.Check {
	return func(ctx context.Context) error {
		return conn.PingContext(ctx)
	}
}
