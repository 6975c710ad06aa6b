package cmd

import (
	"context"
	"os"
	"time"

	coreconfig "github.com/Droze-svj/click-platform-sub013/core/config"
	coreDB "github.com/Droze-svj/click-platform-sub013/core/database"
	domainHealth "github.com/Droze-svj/click-platform-sub013/domains/health"
	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	"github.com/Droze-svj/click-platform-sub013/infrastructure/notify"
	"github.com/Droze-svj/click-platform-sub013/infrastructure/valkey"
	"github.com/Droze-svj/click-platform-sub013/integrations/content"
	"github.com/Droze-svj/click-platform-sub013/integrations/insights"
	"github.com/Droze-svj/click-platform-sub013/pkg/sweepmonitor"
	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/Droze-svj/click-platform-sub013/pkg/workerpool"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/recurrence"
	"github.com/Droze-svj/click-platform-sub013/scheduling/repository"
	"github.com/Droze-svj/click-platform-sub013/ui/websocket"
	"github.com/Droze-svj/click-platform-sub013/usecase"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverID string

	// Infrastructure
	scheduleStore *repository.ScheduleGormRepository
	contentStore  *content.SQLStore
	vkClient      *valkey.Client
	natsSink      *notify.NatsSink
	workerPool    *workerpool.Pool
	fanout        *notify.Fanout
	wsHub         *websocket.Hub

	// Scheduling engine
	sweepScheduler *application.SweepScheduler
	sweepMonitor   *sweepmonitor.Monitor
	exporter       *application.CalendarExporter

	// Usecase
	scheduleUsecase  domainScheduling.IScheduleUsecase
	optimizerUsecase domainScheduling.IOptimizerUsecase
	healthUsecase    domainHealth.IHealthUsecase

	appCtx    context.Context
	appCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "click",
	Short: "Content scheduling engine",
	Long: `Schedules social media posts: recurring rules, conflict detection
and resolution, timing optimization and calendar export.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	if _, err := coreconfig.LoadConfig(); err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("port", "p", coreconfig.Global.App.Port, "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", coreconfig.Global.App.Debug, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.String("db-driver", coreconfig.Global.Database.Driver, `schedule database driver --db-driver <sqlite|postgres>`)
	flags.String("db-name", coreconfig.Global.Database.Name, `sqlite file or postgres database name --db-name <string> | example: --db-name="storages/schedule.db"`)
	flags.String("sweep-spec", coreconfig.Global.Scheduler.SweepSpec, `cron spec for the recurring sweep --sweep-spec <string> | example: --sweep-spec="@every 30s"`)
	flags.Bool("scheduler", coreconfig.Global.Scheduler.Enabled, "run the background sweep loop --scheduler <true/false>")

	_ = viper.BindPFlag("app_port", flags.Lookup("port"))
	_ = viper.BindPFlag("app_debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("db_driver", flags.Lookup("db-driver"))
	_ = viper.BindPFlag("db_name", flags.Lookup("db-name"))
	_ = viper.BindPFlag("scheduler_sweep_spec", flags.Lookup("sweep-spec"))
	_ = viper.BindPFlag("scheduler_enabled", flags.Lookup("scheduler"))
}

func initEnvConfig() {
	cfg := coreconfig.Global
	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	cfg.App.Debug = viper.GetBool("app_debug")
	if v := viper.GetString("db_driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db_name"); v != "" {
		cfg.Database.Name = v
	}
	if v := viper.GetString("scheduler_sweep_spec"); v != "" {
		cfg.Scheduler.SweepSpec = v
	}
	cfg.Scheduler.Enabled = viper.GetBool("scheduler_enabled")
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.App.BaseDir); err != nil {
		logrus.Errorln(err)
	}

	appCtx, appCancel = context.WithCancel(context.Background())
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.App.BaseDir)
	clock := timeutils.RealClock{}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to open schedule db: %v", err)
	}
	scheduleStore = repository.NewScheduleGormRepository(db)
	if err := scheduleStore.Init(appCtx); err != nil {
		logrus.Fatalf("failed to init schedule repo: %v", err)
	}

	contentStore = openContentStore(cfg)

	var audience domain.IAudienceProvider
	var performance domain.IPerformanceProvider
	if cfg.Insights.BaseURL != "" {
		client := insights.NewClient(insights.Config{
			BaseURL: cfg.Insights.BaseURL,
			Token:   cfg.Insights.Token,
			Timeout: cfg.Insights.Timeout,
		})
		audience, performance = client, client
		logrus.Infof("[INSIGHTS] Using provider at %s", cfg.Insights.BaseURL)
	}

	if cfg.Valkey.Enabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			logrus.Warnf("[VALKEY] Disabled, falling back to single instance mode: %v", err)
			vkClient = nil
		}
	}

	workerPool = workerpool.New(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	workerPool.Start(appCtx)

	sweepMonitor = sweepmonitor.New(cfg.Scheduler.MonitorRetention)
	wsHub = websocket.NewHub(vkClient, serverID, func() any { return sweepMonitor.Stats() })
	fanout = notify.NewFanout(notify.Config{
		RatePerSec: cfg.Notify.RatePerSec,
		Burst:      cfg.Notify.Burst,
	}, buildSinks(cfg)...)
	fanout.Start(appCtx)

	calc := recurrence.NewCalculator(cfg.Scheduler.MaxIterations)
	detector := application.NewConflictDetector(scheduleStore, cfg.Scheduler.ConflictWindow)
	resolver := application.NewConflictResolver(detector, scheduleStore, cfg.Scheduler.ResolveAttempts)
	optimizer := application.NewScheduleOptimizer(audience, performance, scheduleStore, contentStore, detector, resolver,
		workerPool, clock, application.OptimizerConfig{DefaultRangeDays: cfg.Optimizer.DefaultRangeDays})
	exporter = application.NewCalendarExporter(scheduleStore, contentStore, clock)

	processor := application.NewRecurringScheduleProcessor(scheduleStore, contentStore, calc, detector, resolver, fanout, clock,
		application.ProcessorConfig{
			Owner:       serverID,
			ClaimTTL:    cfg.Scheduler.ClaimTTL,
			BatchSize:   cfg.Scheduler.BatchSize,
			AutoResolve: cfg.Scheduler.AutoResolve,
		})

	var lease application.ISweepLease
	if vkClient != nil {
		lease = valkey.NewSweepLease(vkClient, "sweep")
	}
	sweepScheduler, err = application.NewSweepScheduler(processor, clock, lease, sweepMonitor, fanout,
		application.SchedulerConfig{
			Spec:     cfg.Scheduler.SweepSpec,
			Owner:    serverID,
			LeaseTTL: cfg.Scheduler.LeaseTTL,
		})
	if err != nil {
		logrus.Fatalf("failed to init sweep scheduler: %v", err)
	}

	scheduleUsecase = usecase.NewScheduleService(scheduleStore, contentStore, calc, detector, resolver, exporter, sweepScheduler, fanout, clock)
	optimizerUsecase = usecase.NewOptimizerService(optimizer, scheduleStore, fanout, clock)
	healthUsecase = usecase.NewHealthService(application.NewScheduleHealthMonitor(scheduleStore, clock), scheduleStore, sweepScheduler, serverID, clock)

	logrus.Infof("[APP] Initialized as %s (db=%s, valkey=%t)", serverID, cfg.Database.Driver, vkClient != nil)
}

// openContentStore connects to the content database, reusing the schedule
// connection when no dedicated DSN is configured.
func openContentStore(cfg *coreconfig.Config) *content.SQLStore {
	driver := cfg.Content.Driver
	if driver == "" {
		driver = cfg.Database.Driver
	}

	var store *content.SQLStore
	var err error
	if cfg.Content.DSN != "" {
		store, err = content.Open(driver, cfg.Content.DSN, cfg.Content.Table)
	} else {
		sqlDB, dbErr := coreDB.GlobalDB.DB()
		if dbErr != nil {
			logrus.Fatalf("failed to reuse schedule db for content: %v", dbErr)
		}
		store, err = content.NewSQLStore(sqlDB, driver, cfg.Content.Table)
	}
	if err != nil {
		logrus.Fatalf("failed to open content store: %v", err)
	}
	if err := store.EnsureSchema(appCtx); err != nil {
		logrus.Warnf("[CONTENT] Schema check failed: %v", err)
	}
	return store
}

func buildSinks(cfg *coreconfig.Config) []notify.ISink {
	sinks := []notify.ISink{wsHub}
	if len(cfg.Notify.WebhookURLs) > 0 {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.WebhookURLs, cfg.Notify.WebhookSecret))
	}
	if cfg.Notify.NatsURL != "" {
		sink, err := notify.NewNatsSink(cfg.Notify.NatsURL, cfg.Notify.NatsSubject)
		if err != nil {
			logrus.Warnf("[NOTIFY] NATS sink disabled: %v", err)
		} else {
			natsSink = sink
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of all connections and workers.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if appCancel != nil {
		appCancel()
	}
	if fanout != nil {
		fanout.Stop()
	}
	if workerPool != nil {
		workerPool.Stop()
	}
	if natsSink != nil {
		natsSink.Close()
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if contentStore != nil && coreconfig.Global.Content.DSN != "" {
		if err := contentStore.Close(); err != nil {
			logrus.Errorf("[APP] Failed to close content store: %v", err)
		}
	}
	if coreDB.GlobalDB != nil {
		if sqlDB, err := coreDB.GlobalDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
