package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/BTreeMap/SiteBot/internal/api"
	"github.com/BTreeMap/SiteBot/internal/booking"
	"github.com/BTreeMap/SiteBot/internal/flow"
	"github.com/BTreeMap/SiteBot/internal/gateway"
	"github.com/BTreeMap/SiteBot/internal/genai"
	"github.com/BTreeMap/SiteBot/internal/lockfile"
	"github.com/BTreeMap/SiteBot/internal/metrics"
	"github.com/BTreeMap/SiteBot/internal/notify"
	"github.com/BTreeMap/SiteBot/internal/recovery"
	"github.com/BTreeMap/SiteBot/internal/session"
	"github.com/BTreeMap/SiteBot/internal/store"
	"github.com/BTreeMap/SiteBot/internal/transcript"
	"github.com/BTreeMap/SiteBot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for SiteBot state data
	DefaultStateDir = "/var/lib/sitebot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "sitebot.db"
	// redisKeyPrefix namespaces session presence keys in a shared Redis
	redisKeyPrefix = "sitebot:presence:"
)

func main() {
	initializeLogger(os.Getenv("LOG_LEVEL"))

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)
	if *flags.logLevel != config.LogLevel {
		initializeLogger(*flags.logLevel)
	}

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping SiteBot with configured modules")
	if err := run(ctx, flags); err != nil {
		slog.Error("SiteBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("SiteBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir           string
	DatabaseURL        string
	APIAddr            string
	OpenAIKey          string
	OpenAIModel        string
	BookingTemplate    string
	ComplaintTemplate  string
	RedisAddr          string
	FlowsDir           string
	BusinessHours      string
	ChunkWords         int
	ChunkDelay         time.Duration
	AllowedOrigins     string
	LogLevel           string
	DisableLock        bool
	DatabaseURLFromEnv bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir          *string
	dbDSN             *string
	apiAddr           *string
	openaiKey         *string
	openaiModel       *string
	bookingTemplate   *string
	complaintTemplate *string
	redisAddr         *string
	flowsDir          *string
	businessHours     *string
	chunkWords        *int
	chunkDelay        *time.Duration
	allowedOrigins    *string
	logLevel          *string
	disableLock       *bool
}

// parseLogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initializeLogger installs the default structured logger
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:          os.Getenv("SITEBOT_STATE_DIR"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		APIAddr:           os.Getenv("API_ADDR"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       os.Getenv("OPENAI_MODEL"),
		BookingTemplate:   os.Getenv("TWILIO_TEMPLATE_BOOKING"),
		ComplaintTemplate: os.Getenv("TWILIO_TEMPLATE_COMPLAINT"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		FlowsDir:          os.Getenv("SITEBOT_FLOWS_DIR"),
		BusinessHours:     os.Getenv("SITEBOT_BUSINESS_HOURS"),
		ChunkWords:        util.ParseIntEnv("SITEBOT_REPLY_CHUNK_WORDS", 0),
		ChunkDelay:        util.ParseDurationEnv("SITEBOT_REPLY_CHUNK_DELAY", 100*time.Millisecond),
		AllowedOrigins:    os.Getenv("SITEBOT_ALLOWED_ORIGINS"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		DisableLock:       util.ParseBoolEnv("SITEBOT_DISABLE_LOCK", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SITEBOT_STATE_DIR set, using default", "stateDir", config.StateDir)
	}

	// Without a database URL, default to SQLite in the state directory
	config.DatabaseURLFromEnv = config.DatabaseURL != ""
	if !config.DatabaseURLFromEnv {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlitePath", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"SITEBOT_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURLFromEnv,
		"API_ADDR", config.APIAddr,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"REDIS_ADDR", config.RedisAddr,
		"SITEBOT_FLOWS_DIR", config.FlowsDir,
		"SITEBOT_REPLY_CHUNK_WORDS", config.ChunkWords)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := newFlags(flag.CommandLine, config)
	flag.Parse()
	finalizeFlags(flags, config)
	return flags
}

func newFlags(fs *flag.FlagSet, config Config) Flags {
	return Flags{
		stateDir:          fs.String("state-dir", config.StateDir, "state directory for SiteBot data (overrides $SITEBOT_STATE_DIR)"),
		dbDSN:             fs.String("db-dsn", config.DatabaseURL, "database DSN: postgres URL or SQLite path; \"memory\" for an in-memory store (overrides $DATABASE_URL)"),
		apiAddr:           fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		openaiKey:         fs.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:       fs.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		bookingTemplate:   fs.String("booking-template", config.BookingTemplate, "Twilio content template for booking notifications (overrides $TWILIO_TEMPLATE_BOOKING)"),
		complaintTemplate: fs.String("complaint-template", config.ComplaintTemplate, "Twilio content template for complaint notifications (overrides $TWILIO_TEMPLATE_COMPLAINT)"),
		redisAddr:         fs.String("redis-addr", config.RedisAddr, "Redis address for shared session presence (overrides $REDIS_ADDR)"),
		flowsDir:          fs.String("flows-dir", config.FlowsDir, "directory of tenant YAML files seeded at startup (overrides $SITEBOT_FLOWS_DIR)"),
		businessHours:     fs.String("business-hours", config.BusinessHours, "comma-separated bookable time slots (overrides $SITEBOT_BUSINESS_HOURS)"),
		chunkWords:        fs.Int("reply-chunk-words", config.ChunkWords, "split replies into chunks of this many words; 0 sends them whole"),
		chunkDelay:        fs.Duration("reply-chunk-delay", config.ChunkDelay, "delay between reply chunks"),
		allowedOrigins:    fs.String("allowed-origins", config.AllowedOrigins, "comma-separated Origin allow list for the chat socket; empty allows any"),
		logLevel:          fs.String("log-level", config.LogLevel, "log level: debug, info, warn or error (overrides $LOG_LEVEL)"),
		disableLock:       fs.Bool("disable-lock", config.DisableLock, "skip the state directory lock (overrides $SITEBOT_DISABLE_LOCK)"),
	}
}

// finalizeFlags moves the default SQLite path along with an overridden state dir.
func finalizeFlags(flags Flags, config Config) {
	if !config.DatabaseURLFromEnv && *flags.dbDSN == config.DatabaseURL && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "stateDir", *flags.stateDir)
	}
	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSNSet", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"openaiKeySet", *flags.openaiKey != "",
		"redisAddr", *flags.redisAddr,
		"flowsDir", *flags.flowsDir)
}

// storeDSN maps the "memory" DSN onto the in-memory store.
func storeDSN(flags Flags) string {
	if strings.EqualFold(*flags.dbDSN, "memory") {
		return ""
	}
	return *flags.dbDSN
}

// ensureDirectoriesExist creates the state directory; the SQLite store
// creates its own parent directory.
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", *flags.stateDir, err)
	}
	return nil
}

// seedTenants loads tenant files from dir into s. Every flow is validated
// before anything is written so a bad file fails startup cleanly.
func seedTenants(ctx context.Context, s store.Store, dir string) error {
	if dir == "" {
		return nil
	}
	files, err := store.LoadTenantDir(dir)
	if err != nil {
		return err
	}
	for _, tf := range files {
		if err := flow.ValidateDefinition(&tf.Flow); err != nil {
			return err
		}
	}
	for _, tf := range files {
		if err := tf.Seed(ctx, s); err != nil {
			return fmt.Errorf("failed to seed tenant %s: %w", tf.Website.TenantCode, err)
		}
	}
	slog.Info("Seeded tenants from flows directory", "dir", dir, "count", len(files))
	return nil
}

// buildPresence connects the shared session presence when a Redis address
// is configured. It returns nil without one.
func buildPresence(ctx context.Context, flags Flags) (*session.RedisPresence, func(), error) {
	if *flags.redisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: *flags.redisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", *flags.redisAddr, err)
	}
	instance := uuid.NewString()
	slog.Info("Publishing session presence to Redis", "addr", *flags.redisAddr, "instance", instance)
	return session.NewRedisPresence(client, redisKeyPrefix, instance, session.DefaultPresenceTTL), func() { client.Close() }, nil
}

// buildSessionOptions wires the registry to presence, if any.
func buildSessionOptions(presence *session.RedisPresence) []session.Option {
	if presence == nil {
		return nil
	}
	return []session.Option{session.WithPresence(presence)}
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildDispatcherOptions constructs notification configuration options
func buildDispatcherOptions(flags Flags, m *metrics.Metrics) []notify.DispatcherOption {
	opts := []notify.DispatcherOption{notify.WithMetrics(m)}
	if *flags.bookingTemplate != "" {
		opts = append(opts, notify.WithBookingTemplate(*flags.bookingTemplate))
	}
	if *flags.complaintTemplate != "" {
		opts = append(opts, notify.WithComplaintTemplate(*flags.complaintTemplate))
	}
	return opts
}

// buildGatewayOptions constructs chat socket configuration options
func buildGatewayOptions(flags Flags) []gateway.Option {
	opts := []gateway.Option{gateway.WithChunking(*flags.chunkWords, *flags.chunkDelay)}
	if origins := util.SplitList(*flags.allowedOrigins); len(origins) > 0 {
		opts = append(opts, gateway.WithAllowedOrigins(origins))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// recoverOrphans abandons transcripts a previous process left active. With
// a presence, transcripts another instance still claims are left alone.
func recoverOrphans(ctx context.Context, st store.Store, recorder *transcript.Recorder, liveness recovery.Liveness, startedAt time.Time) {
	var opts []recovery.SweeperOption
	if liveness != nil {
		opts = append(opts, recovery.WithLiveness(liveness))
	}
	m := recovery.NewManager()
	m.Register(recovery.NewTranscriptSweeper(st, recorder, startedAt, opts...))
	if err := m.RecoverAll(ctx); err != nil {
		slog.Warn("Startup recovery incomplete", "error", err)
	}
}

func run(ctx context.Context, flags Flags) error {
	startedAt := time.Now()
	if !*flags.disableLock {
		lock, err := lockfile.Acquire(*flags.stateDir, *flags.apiAddr)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	st, err := store.New(storeDSN(flags))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := seedTenants(ctx, st, *flags.flowsDir); err != nil {
		return err
	}

	presence, closeRedis, err := buildPresence(ctx, flags)
	if err != nil {
		return err
	}
	defer closeRedis()

	recorder := transcript.NewRecorder(st)
	var liveness recovery.Liveness
	if presence != nil {
		liveness = presence
	}
	recoverOrphans(ctx, st, recorder, liveness, startedAt)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	checker := booking.NewChecker(st, st, booking.WithBusinessHours(booking.ParseBusinessHours(*flags.businessHours)))
	bookings := booking.NewService(st, checker)

	engineOpts := []flow.Option{flow.WithMetrics(m)}
	if gen, err := genai.NewClient(buildGenAIOptions(flags)...); err != nil {
		slog.Warn("GenAI disabled; AI steps will use template replies", "error", err)
	} else {
		engineOpts = append(engineOpts, flow.WithGenerator(gen))
	}

	var dispatcher *notify.Dispatcher
	if sender, err := notify.NewTwilioSender(); err != nil {
		slog.Warn("Notifications disabled", "error", err)
	} else {
		dispatcher = notify.NewDispatcher(sender, buildDispatcherOptions(flags, m)...)
		engineOpts = append(engineOpts, flow.WithNotifier(dispatcher))
	}

	sessions := session.NewRegistry(buildSessionOptions(presence)...)
	if presence != nil {
		go sessions.KeepAlive(ctx, presence.TTL()/3)
	}

	engine := flow.NewEngine(flow.Dependencies{
		Tenants:  st,
		Flows:    st,
		Sessions: sessions,
		Recorder: recorder,
		Checker:  checker,
		Bookings: bookings,
	}, engineOpts...)

	srv := api.NewServer(api.Dependencies{
		Store:    st,
		Bookings: bookings,
		Checker:  checker,
		Socket:   gateway.New(engine, buildGatewayOptions(flags)...),
		Gatherer: reg,
	}, buildAPIOptions(flags)...)

	err = srv.Run(ctx)
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
