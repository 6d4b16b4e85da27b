// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	httpin "github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/handlers"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/in/http/middleware"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/out/cache"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db"
	fsrepo "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/firestore"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/out/gcs"
	"github.com/Argy1/pdpi-member-sub002/internal/adapters/out/mail"
	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
	usecase "github.com/Argy1/pdpi-member-sub002/internal/application/usecase"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/migration"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
	appcfg "github.com/Argy1/pdpi-member-sub002/internal/infra/config"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/database"
	firestoreinfra "github.com/Argy1/pdpi-member-sub002/internal/infra/firestore"
	"github.com/Argy1/pdpi-member-sub002/internal/infra/secret"
)

// SendGridSecretDefault is the Secret Manager id read when
// SENDGRID_API_KEY_SECRET is set to "default".
const SendGridSecretDefault = "sendgrid-api-key"

// Container owns the external clients and the wired usecases.
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	// Clients (owned; Close-managed). Unused ones stay nil.
	Firestore    *firestoreinfra.ClientWrapper
	DB           *database.DB
	Redis        *redis.Client
	GCS          *storage.Client
	FirebaseAuth *fbauth.Client
	Secrets      *secret.Provider

	// Ports
	MemberRepo  memdom.Repository
	PaymentRepo paydom.Repository
	MarkerRepo  migration.MarkerRepository
	StatsSource statsdom.Source
	Photos      memdom.PhotoStore
	Notifier    guard.Notifier

	// Usecases
	MemberUC    *usecase.MemberUsecase
	PaymentUC   *usecase.PaymentUsecase
	StatsUC     *usecase.StatsUsecase
	MigrationUC *usecase.MigrationUsecase

	Guards handlers.Guards
}

// NewContainer builds the storage backend selected by MEMBER_STORE (strict),
// then the optional collaborators: Redis cache, GCS photos, Firebase Auth and
// SendGrid alerts (best-effort: warn and continue).
func NewContainer(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: log}
	dlog := log.Named("di")

	var clientOpts []option.ClientOption
	if f := strings.TrimSpace(cfg.FirestoreCredentialsFile); f != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(f))
	}

	// 1) Storage backend (strict)
	if err := c.initStore(ctx, dlog); err != nil {
		c.Close()
		return nil, err
	}

	// 2) Stats cache (optional)
	c.StatsSource = c.baseStatsSource()
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		c.Redis = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			dlog.Warn("redis ping failed; stats cache still wired and falls through on errors", zap.String("addr", addr), zap.Error(err))
		}
		c.StatsSource = cache.NewStatsCache(c.StatsSource, c.Redis, cfg.StatsCacheTTL, log.Named("stats_cache"))
		dlog.Info("stats cache enabled", zap.String("addr", addr), zap.Duration("ttl", cfg.StatsCacheTTL))
	}

	// 3) Member photos (optional)
	if bucket := strings.TrimSpace(cfg.MemberPhotoBucket); bucket != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			dlog.Warn("storage.NewClient failed; photo upload disabled", zap.Error(err))
		} else {
			c.GCS = gcsClient
			c.Photos = gcs.NewMemberPhotoStore(gcsClient, bucket)
		}
	} else {
		dlog.Info("GCS_BUCKET_MEMBER_PHOTOS empty; photo upload disabled")
	}

	// 4) Firebase Auth (best-effort)
	if app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...); err != nil {
		dlog.Warn("firebase app init failed", zap.Error(err))
	} else if authClient, err := app.Auth(ctx); err != nil {
		dlog.Warn("firebase auth init failed", zap.Error(err))
	} else {
		c.FirebaseAuth = authClient
	}

	// 5) Notifications
	c.Notifier = c.buildNotifier(ctx, dlog)

	// 6) Usecases & guards
	c.MemberUC = usecase.NewMemberUsecase(c.MemberRepo, c.Photos)
	c.PaymentUC = usecase.NewPaymentUsecase(c.PaymentRepo, c.MemberRepo)
	c.StatsUC = usecase.NewStatsUsecase(c.StatsSource, log, cfg.StatsTimeout)
	c.MigrationUC = usecase.NewMigrationUsecase(c.MemberRepo, c.MarkerRepo, log)

	glog := log.Named("guard")
	c.Guards = handlers.Guards{
		Member:  guard.MemberGuard(c.Notifier, glog),
		Admin:   guard.AdminGuard(c.Notifier, glog),
		Central: guard.CentralAdminGuard(c.Notifier, glog),
	}
	return c, nil
}

func (c *Container) initStore(ctx context.Context, log *zap.Logger) error {
	cfg := c.Config
	if cfg.UsePostgres() {
		dsn := database.DSN(cfg.PGHost, cfg.PGPort, cfg.PGUser, cfg.PGPassword, cfg.PGDatabase, cfg.PGSSLMode)
		conn, err := database.NewConnection(ctx, dsn, log)
		if err != nil {
			return fmt.Errorf("di: postgres: %w", err)
		}
		c.DB = conn
		if err := db.EnsureSchema(ctx, conn.Client); err != nil {
			return fmt.Errorf("di: ensure schema: %w", err)
		}
		c.MemberRepo = db.NewMemberRepositoryPG(conn.Client)
		c.PaymentRepo = db.NewPaymentRepositoryPG(conn.Client)
		c.MarkerRepo = db.NewMarkerRepositoryPG(conn.Client)
		return nil
	}

	fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, log)
	if err != nil {
		return fmt.Errorf("di: %w", err)
	}
	c.Firestore = fs
	c.MemberRepo = fsrepo.NewMemberRepositoryFS(fs.Client)
	c.PaymentRepo = fsrepo.NewPaymentRepositoryFS(fs.Client)
	c.MarkerRepo = fsrepo.NewMarkerRepositoryFS(fs.Client)
	return nil
}

func (c *Container) baseStatsSource() statsdom.Source {
	if c.DB != nil {
		return db.NewStatsRepositoryPG(c.DB.Client)
	}
	return fsrepo.NewStatsRepositoryFS(c.Firestore.Client)
}

// buildNotifier always logs; it also mails when SendGrid is configured.
func (c *Container) buildNotifier(ctx context.Context, log *zap.Logger) guard.Notifier {
	cfg := c.Config
	notifiers := mail.Fanout{mail.LogNotifier{Logger: c.Logger.Named("notify")}}
	if !cfg.AlertsEnabled() {
		return notifiers
	}

	apiKey := strings.TrimSpace(cfg.SendGridAPIKey)
	if apiKey == "" {
		p, err := secret.NewProvider(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Warn("secret manager unavailable; mail alerts disabled", zap.Error(err))
			return notifiers
		}
		c.Secrets = p
		id := cfg.SendGridAPIKeySecret
		if id == "default" {
			id = SendGridSecretDefault
		}
		if apiKey, err = p.Get(ctx, id); err != nil {
			log.Warn("sendgrid api key not readable; mail alerts disabled", zap.String("secret", id), zap.Error(err))
			return notifiers
		}
	}

	sender := mail.NewSendGridClient(apiKey, "PDPI Directory", c.Logger.Named("mail"))
	return append(notifiers, mail.NewAlertNotifier(sender, cfg.SendGridFrom, cfg.SecurityAlertEmail))
}

// Ping checks the member store.
func (c *Container) Ping(ctx context.Context) error {
	switch {
	case c.DB != nil:
		return c.DB.Client.PingContext(ctx)
	case c.Firestore != nil:
		return c.Firestore.Ping(ctx)
	default:
		return errors.New("di: no member store")
	}
}

// RouterDeps is what the HTTP router needs.
func (c *Container) RouterDeps() httpin.RouterDeps {
	auth := &middleware.AuthMiddleware{MemberRepo: c.MemberRepo, Logger: c.Logger.Named("auth")}
	if c.FirebaseAuth != nil {
		auth.FirebaseAuth = c.FirebaseAuth
	}
	return httpin.RouterDeps{
		MemberUC:       c.MemberUC,
		PaymentUC:      c.PaymentUC,
		StatsUC:        c.StatsUC,
		MigrationUC:    c.MigrationUC,
		Auth:           auth,
		Guards:         c.Guards,
		AllowedOrigins: c.Config.CORSAllowedOrigin,
		Logger:         c.Logger,
	}
}

// Close releases every client the container opened.
func (c *Container) Close() {
	if c == nil {
		return
	}
	log := c.Logger
	closeLogged := func(name string, fn func() error) {
		if err := fn(); err != nil {
			log.Warn("close failed", zap.String("client", name), zap.Error(err))
		}
	}
	if c.Firestore != nil {
		closeLogged("firestore", c.Firestore.Close)
	}
	if c.DB != nil {
		closeLogged("postgres", c.DB.Close)
	}
	if c.Redis != nil {
		closeLogged("redis", c.Redis.Close)
	}
	if c.GCS != nil {
		closeLogged("gcs", c.GCS.Close)
	}
	if c.Secrets != nil {
		closeLogged("secretmanager", c.Secrets.Close)
	}
}
