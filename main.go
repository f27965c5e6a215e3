package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vardrill/adapters/excel"
	"vardrill/adapters/history"
	"vardrill/adapters/sqlstore"
	"vardrill/domain/drill"
	"vardrill/domain/spc"
	"vardrill/internal"
	"vardrill/internal/config"
	"vardrill/internal/navigation"
	"vardrill/internal/session"
	"vardrill/internal/testkit"
	"vardrill/ports"
	"vardrill/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(appConfig.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := session.SettingsFromConfig(appConfig)
	if appConfig.Data.Profile != "" {
		profile, err := config.LoadProfile(appConfig.Data.Profile)
		if err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
		settings = settings.WithProfile(profile)
		log.Printf("Using analysis profile %q", profile.Name)
	}

	dataset, reader := loadDataset(ctx, appConfig, &settings)
	log.Printf("Dataset %s: %d rows, %d columns, outcome %s", dataset.Source, dataset.Len(), len(dataset.Columns), settings.Outcome)

	var store ports.SessionRepository
	if appConfig.Database.Enabled() {
		sqlStore, err := sqlstore.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize session store: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		log.Println("DATABASE_URL not set, sessions are kept in memory only")
	}

	manager := session.NewManager(dataset, settings, session.ManagerOptions{
		Store: store,
		History: func(location string) navigation.HistoryAdapter {
			return history.NewMemoryHistory(location)
		},
		Navigation: navigation.Options{
			EnableHistory: true,
			EnableURLSync: true,
			RootLabel:     settings.RootLabel,
		},
		CacheSize: appConfig.Analysis.MemoCapacity,
	})
	defer manager.Close()

	if reader != nil && appConfig.Data.Watch {
		watcher := excel.NewWatcher(reader, manager.ReplaceDataset)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Printf("File watcher stopped: %v", err)
			}
		}()
	}

	server := ui.NewServer(manager, ui.ServerOptions{
		Port:            appConfig.Server.Port,
		GinMode:         appConfig.Server.GinMode,
		PublicURL:       appConfig.Server.PublicURL,
		ShutdownTimeout: appConfig.Server.ShutdownTimeout,
	})
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadDataset reads DATA_FILE, or falls back to a synthetic fill-weight
// dataset so the server is usable out of the box.
func loadDataset(ctx context.Context, appConfig *config.Config, settings *session.Settings) (*drill.Dataset, *excel.DataReader) {
	if appConfig.Data.File == "" {
		log.Println("DATA_FILE not set, serving synthetic process data")
		if settings.Outcome == "" {
			settings.Outcome = testkit.ColumnWeight
		}
		if settings.StageColumn == "" {
			settings.StageColumn = testkit.ColumnPhase
			settings.StageOrder = spc.StageOrderAuto
		}
		return testkit.NewProcessDataGenerator(testkit.DefaultProcessConfig()).Generate(), nil
	}

	readerConfig := excel.DefaultReaderConfig(appConfig.Data.File)
	readerConfig.Sheet = appConfig.Data.Sheet
	reader := excel.NewDataReader(readerConfig)
	dataset, err := reader.ReadDataset(ctx)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", appConfig.Data.File, err)
	}
	if !dataset.HasColumn(settings.Outcome) {
		log.Fatalf("Outcome column %q not found in %s", settings.Outcome, appConfig.Data.File)
	}
	if len(settings.Factors) == 0 {
		settings.Factors = excel.SuggestFactors(dataset, settings.Outcome)
		log.Printf("Inferred factors: %v", settings.Factors)
	}
	return dataset, reader
}
