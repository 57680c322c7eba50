// Package bootstrap assembles the storefront from configuration. The HTTP
// server and the operator CLI share it so both run the same services
// against the same infrastructure.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	customerapp "github.com/storefront/backend/internal/application/customer"
	notificationapp "github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	staffapp "github.com/storefront/backend/internal/application/staff"
	webhookapp "github.com/storefront/backend/internal/application/webhook"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/email"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	paymentinfra "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	shippinginfra "github.com/storefront/backend/internal/infrastructure/shipping"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Services holds the application services
type Services struct {
	Categories      *catalogapp.CategoryService
	Products        *catalogapp.ProductService
	Imports         *catalogapp.ImportService
	Customers       *customerapp.CustomerService
	Carts           *cartapp.CartService
	Checkout        *checkoutapp.CheckoutService
	Orders          *orderapp.OrderService
	Reconciliation  *paymentapp.ReconciliationService
	Shipping        *shippingapp.ShippingService
	DeliveryOptions *shippingapp.DeliveryOptionService
	Emails          *notificationapp.EmailService
	Staff           *staffapp.StaffService
}

// App is a fully wired storefront
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Telemetry   *telemetry.Providers
	Metrics     *telemetry.ShopMetrics
	Database    *persistence.Database
	Stores      *cache.Stores
	Bus         *event.InMemoryEventBus
	Tokens      *auth.JWTService
	Revocations auth.Revocations
	Services    Services

	closers []func(context.Context) error
}

// New connects every dependency named in cfg and wires the services. On
// error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config) (app *App, err error) {
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = log

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	app.Telemetry = providers
	app.onClose(providers.Shutdown)

	// Logs go to the collector as well once the log pipeline is up
	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		log, err = logger.New(logCfg, providers.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.Logger = log
	}

	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled {
		meter := otel.Meter(cfg.Telemetry.ServiceName)
		metrics, err := telemetry.NewShopMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		app.Metrics = metrics
		if sqlDB, err := app.Database.DB.DB(); err == nil {
			if err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
				log.Warn("Failed to register database pool metrics", zap.Error(err))
			}
		}
	}

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStores()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache stores: %w", err)
	}
	app.Stores = stores
	app.onClose(func(context.Context) error { return stores.Close() })

	if stores.Redis != nil {
		app.Revocations = auth.NewRedisRevocations(stores.Redis)
	} else {
		app.Revocations = auth.NewMemoryRevocations()
	}

	app.Tokens, err = auth.NewJWTService(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	if err := app.wireServices(ctx); err != nil {
		return nil, err
	}

	log.Info("Storefront wired",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Bool("redis", stores.Redis != nil),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
		zap.Bool("kafka", cfg.Kafka.Enabled),
	)
	return app, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	cfg := a.Config
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
		logger.WithQueryParams(cfg.Telemetry.DBLogFullSQL))

	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Database = db
	a.onClose(func(context.Context) error { return db.Close() })

	if a.Telemetry.TracingEnabled() && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentGorm(db.DB, telemetry.DBTracingConfig{
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowThreshold,
			DBName:          cfg.Database.DBName,
		}, a.Logger); err != nil {
			return fmt.Errorf("failed to instrument database: %w", err)
		}
	}
	a.Logger.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))
	return nil
}

func (a *App) wireServices(ctx context.Context) error {
	cfg := a.Config
	log := a.Logger
	db := a.Database.DB

	gateway, err := paymentinfra.NewStripeGateway(cfg.Stripe, log)
	if err != nil {
		return fmt.Errorf("failed to create payment gateway: %w", err)
	}
	carrier, err := shippinginfra.NewHTTPProvider(cfg.Shipping, log)
	if err != nil {
		return fmt.Errorf("failed to create shipping provider: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	sender, err := email.NewSender(cfg.Email, log)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}
	images, err := a.imageStore(ctx)
	if err != nil {
		return err
	}

	txManager := persistence.NewGormTxManager(db)
	categoryRepo := persistence.NewGormCategoryRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	stockRepo := persistence.NewGormStockRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	wishlistRepo := persistence.NewGormWishlistRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	orphanRepo := persistence.NewGormOrphanRepository(db)
	shipmentRepo := persistence.NewGormShipmentRepository(db)
	optionRepo := persistence.NewGormDeliveryOptionRepository(db)
	emailRepo := persistence.NewGormEmailRepository(db)
	staffRepo := persistence.NewGormStaffRepository(db)
	webhookRepo := persistence.NewGormWebhookRepository(db)

	bus := event.NewInMemoryEventBus(log)
	a.Bus = bus
	webhooks := webhookapp.NewProcessor(webhookRepo, log)
	webhooks.SetMetrics(a.Metrics)

	s := &a.Services
	s.Categories = catalogapp.NewCategoryService(categoryRepo)
	s.Products = catalogapp.NewProductService(productRepo, categoryRepo, stockRepo, bus,
		catalogapp.WithImageStore(images),
		catalogapp.WithMaxImageSize(cfg.Storage.MaxImageSize),
		catalogapp.WithProductLogger(log),
		catalogapp.WithCurrency(cfg.App.Currency),
	)
	s.Imports = catalogapp.NewImportService(productRepo, categoryRepo, stockRepo, txManager, bus, log)
	s.Imports.SetCurrency(cfg.App.Currency)
	s.Customers = customerapp.NewCustomerService(customerRepo, wishlistRepo, productRepo, log)

	pricer := cartapp.NewPricer(productRepo)
	s.Carts = cartapp.NewCartService(a.Stores.Carts, pricer, cfg.App.Currency, cfg.Checkout.CartTTL)

	s.Orders = orderapp.NewOrderService(orderRepo, stockRepo, gateway, txManager, bus, log)
	s.Orders.SetMetrics(a.Metrics)

	s.Checkout = checkoutapp.NewCheckoutService(checkoutapp.Deps{
		Orders:          orderRepo,
		Stock:           stockRepo,
		Customers:       customerRepo,
		DeliveryOptions: optionRepo,
		Carts:           a.Stores.Carts,
		Pricer:          pricer,
		Gateway:         gateway,
		Idempotency:     a.Stores.Idempotency,
		Canceller:       s.Orders,
		TxManager:       txManager,
		Publisher:       bus,
		Logger:          log,
	}, checkoutapp.Config{
		Currency:       cfg.App.Currency,
		IdempotencyTTL: cfg.Checkout.IdempotencyTTL,
	})

	s.Reconciliation = paymentapp.NewReconciliationService(paymentapp.Deps{
		Orders:    orderRepo,
		Orphans:   orphanRepo,
		Stock:     stockRepo,
		Gateway:   gateway,
		Webhooks:  webhooks,
		TxManager: txManager,
		Publisher: bus,
		Logger:    log,
	}, paymentapp.Config{
		GracePeriod:       cfg.Reconciliation.OrphanGracePeriod,
		MaxRefundAttempts: cfg.Reconciliation.MaxRefundAttempts,
		ScanWindow:        cfg.Reconciliation.PaymentScanWindow,
		BatchSize:         cfg.Reconciliation.SweepBatchSize,
	})
	s.Reconciliation.SetMetrics(a.Metrics)

	s.Shipping = shippingapp.NewShippingService(shippingapp.Deps{
		Shipments: shipmentRepo,
		Options:   optionRepo,
		Orders:    orderRepo,
		Provider:  carrier,
		Webhooks:  webhooks,
		TxManager: txManager,
		Publisher: bus,
		Logger:    log,
	}, shippingapp.Config{
		SyncMinAge: cfg.Reconciliation.ShipmentSyncMinAge,
		BatchSize:  cfg.Reconciliation.ShipmentSyncBatch,
	})
	s.DeliveryOptions = shippingapp.NewDeliveryOptionService(optionRepo, log)
	s.DeliveryOptions.SetCurrency(cfg.App.Currency)

	s.Emails = notificationapp.NewEmailService(emailRepo, renderer, sender, notificationapp.Config{
		Policy: notification.RetryPolicy{
			Base:        cfg.Email.BackoffBase,
			Cap:         cfg.Email.BackoffCap,
			MaxAttempts: cfg.Email.MaxAttempts,
		},
		BatchSize: cfg.Email.BatchSize,
	}, log)
	s.Emails.SetMetrics(a.Metrics)

	s.Staff = staffapp.NewStaffService(staffRepo, a.Tokens, a.Revocations, log)

	return a.subscribe(ctx, orderRepo)
}

// subscribe attaches the event consumers and starts the bus
func (a *App) subscribe(ctx context.Context, orders order.Repository) error {
	cfg := a.Config
	bus := a.Bus

	bus.Subscribe(notificationapp.NewOrderEmailHandler(a.Services.Emails, orders, cfg.App.Name, a.Logger))
	if a.Metrics != nil {
		bus.Subscribe(a.Metrics)
	}
	if cfg.Kafka.Enabled {
		forwarder, err := event.NewKafkaForwarder(cfg.Kafka, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka forwarder: %w", err)
		}
		a.onClose(func(context.Context) error { return forwarder.Close() })
		bus.Subscribe(forwarder)
	}

	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	a.onClose(bus.Stop)
	return nil
}

func (a *App) imageStore(ctx context.Context) (catalog.ImageStore, error) {
	cfg := a.Config.Storage
	if !cfg.Enabled {
		a.Logger.Info("Object storage disabled, keeping product images in memory")
		return storage.NewMemoryImageStore(cfg.PublicBaseURL), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg, storage.WithLogger(a.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", cfg.Bucket, err)
	}
	return s3, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything New opened, most recent first
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
