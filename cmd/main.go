package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/tonatiuh19/intelivoucher-checkout/api"
	"github.com/tonatiuh19/intelivoucher-checkout/cache"
	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/clock"
	"github.com/tonatiuh19/intelivoucher-checkout/dynamo"
	"github.com/tonatiuh19/intelivoucher-checkout/hold"
	"github.com/tonatiuh19/intelivoucher-checkout/metrics"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/payment/card"
	"github.com/tonatiuh19/intelivoucher-checkout/payment/wallet"
	"github.com/tonatiuh19/intelivoucher-checkout/pricing"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := getSettingsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(settings.Env)

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: checkout seed <file.json>")
			os.Exit(2)
		}
		if err := runSeed(ctx, settings, logger, os.Args[2]); err != nil {
			logger.Error("seed failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, settings, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, settings Settings, logger *slog.Logger) error {
	if _, err := api.GetSwagger(); err != nil {
		return fmt.Errorf("error loading swagger spec: %w", err)
	}

	awsCfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return err
	}

	secrets, err := loadSecrets(ctx, awsCfg, settings.Env, settings)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, reads will go to the database", slog.String("error", err.Error()))
	}

	db := newDB(awsCfg, settings)
	events := cache.NewCatalog(redisClient, db, settings.CacheTTL, logger)
	keys := cache.NewPaymentKeys(redisClient, db, settings.CacheTTL, logger)

	clk := clock.NewSystem()

	registry, err := newPaymentRegistry(ctx, keys, secrets, settings, clk, logger)
	if err != nil {
		return err
	}
	logger.Info("payment methods available", slog.Any("methods", registry.Available()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	serverMetrics := metrics.NewServerMetrics(reg)

	sender := createEmailSender(awsCfg, logger, settings.Env)

	store := checkout.NewStore(checkoutMetrics)
	svc := checkout.NewService(events, store, checkout.Deps{
		Payments:     registry,
		Reservations: reservation.NewHTTPClient(settings.ReservationURL, logger, reservation.WithAPIKey(secrets.ReservationAPIKey)),
		Clock:        clk,
		Logger:       logger,
		Metrics:      checkoutMetrics,
		OnConfirmed:  confirmationEmailer(sender, settings.FromEmail, logger),
	}, checkout.Config{
		Fees: pricing.Fees{
			Service:    settings.ServiceFee,
			Processing: settings.ProcessingFee,
		},
		HoldDuration:   settings.HoldDuration,
		HoldPolicy:     settings.HoldPolicy,
		SupportContact: settings.SupportContact,
	})

	go sweepSessions(ctx, store, clk, settings.SessionTTL, logger)

	checkoutAPI := api.NewAPI(svc, logger, settings.Env,
		api.WithMetrics(serverMetrics, reg),
		api.WithAllowedOrigins(settings.AllowedOrigins...),
	)

	s := &http.Server{
		Handler:           checkoutAPI.Handler(),
		Addr:              net.JoinHostPort(settings.Host, settings.Port),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func newPaymentRegistry(ctx context.Context, keys payment.KeyRepository, secrets Secrets, settings Settings, clk clock.Clock, logger *slog.Logger) (*payment.Registry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	paymentKeys, err := keys.GetPaymentKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment keys: %w", err)
	}

	factories := map[payment.Method]payment.Factory{}
	if secrets.StripeSecretKey != "" {
		factories[payment.CARD] = card.Factory(card.NewStripeGateway(secrets.StripeSecretKey), clk)
	}
	if secrets.PayPalClientSecret != "" {
		baseURL := wallet.SandboxURL
		if settings.Env == api.PROD {
			baseURL = wallet.LiveURL
		}
		factories[payment.WALLET] = wallet.Factory(secrets.PayPalClientSecret, clk, logger, wallet.WithBaseURL(baseURL))
	}

	return payment.NewRegistry(paymentKeys, settings.Env == api.PROD, factories)
}

// sweepSessions drops abandoned sessions so the store does not grow without bound.
func sweepSessions(ctx context.Context, store *checkout.Store, clk clock.Clock, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(clk.Now().Add(-ttl)); n > 0 {
				logger.Info("swept abandoned checkouts", slog.Int("count", n), slog.Int("remaining", store.Len()))
			}
		}
	}
}

func loadAWSConfig(ctx context.Context, settings Settings) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(settings.AWSRegion)}
	if settings.Env == api.LOCAL {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to get aws config: %w", err)
	}
	return cfg, nil
}

func newDB(cfg aws.Config, settings Settings) *dynamo.DB {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if settings.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.DynamoEndpoint)
		}
	})
	return dynamo.NewDB(client, settings.TableName)
}

func newLogger(env api.Environment) *slog.Logger {
	if env == api.LOCAL {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

type Settings struct {
	Host string
	Port string
	Env  api.Environment

	AWSRegion      string
	DynamoEndpoint string
	TableName      string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ReservationURL      string
	StripeSecretParam   string
	PayPalSecretParam   string
	ReservationKeyParam string

	FromEmail      string
	SupportContact string
	AllowedOrigins []string

	ServiceFee    int64
	ProcessingFee int64
	HoldDuration  time.Duration
	HoldPolicy    hold.Policy
	SessionTTL    time.Duration
}

func getSettingsFromEnv() (Settings, error) {
	s := Settings{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		AWSRegion:           getEnvOrDefault("AWS_REGION", "us-east-1"),
		DynamoEndpoint:      getEnvOrDefault("DYNAMO_ENDPOINT", ""),
		TableName:           getEnvOrDefault("DYNAMO_TABLE", "Intelivoucher"),
		RedisAddr:           getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnvOrDefault("REDIS_PASSWORD", ""),
		ReservationURL:      getEnvOrDefault("RESERVATION_URL", "http://localhost:9090"),
		StripeSecretParam:   getEnvOrDefault("STRIPE_SECRET_PARAM", "/intelivoucher/stripe-secret-key"),
		PayPalSecretParam:   getEnvOrDefault("PAYPAL_SECRET_PARAM", "/intelivoucher/paypal-client-secret"),
		ReservationKeyParam: getEnvOrDefault("RESERVATION_KEY_PARAM", ""),
		FromEmail:           getEnvOrDefault("FROM_EMAIL", "boletos@intelivoucher.com"),
		SupportContact:      getEnvOrDefault("SUPPORT_CONTACT", "soporte@intelivoucher.com"),
		AllowedOrigins:      strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "https://intelivoucher.com"), ","),
	}

	switch env := getEnvOrDefault("ENV", "LOCAL"); env {
	case "LOCAL":
		s.Env = api.LOCAL
	case "PROD":
		s.Env = api.PROD
	default:
		return Settings{}, fmt.Errorf("unknown ENV %q", env)
	}

	policy, ok := hold.ParsePolicy(getEnvOrDefault("HOLD_POLICY", string(hold.ADVISORY)))
	if !ok {
		return Settings{}, fmt.Errorf("unknown HOLD_POLICY %q", os.Getenv("HOLD_POLICY"))
	}
	s.HoldPolicy = policy

	var err error
	if s.ServiceFee, err = getInt64Env("SERVICE_FEE", 850); err != nil {
		return Settings{}, err
	}
	if s.ProcessingFee, err = getInt64Env("PROCESSING_FEE", 399); err != nil {
		return Settings{}, err
	}
	if s.HoldDuration, err = getDurationEnv("HOLD_DURATION", hold.DefaultDuration); err != nil {
		return Settings{}, err
	}
	if s.SessionTTL, err = getDurationEnv("SESSION_TTL", 2*time.Hour); err != nil {
		return Settings{}, err
	}
	if s.CacheTTL, err = getDurationEnv("CACHE_TTL", cache.DefaultTTL); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}

func getInt64Env(key string, defaultVal int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
