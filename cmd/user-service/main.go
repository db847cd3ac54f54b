package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/civicgrid/user-service/internal/config"
	"github.com/civicgrid/user-service/internal/database"
	"github.com/civicgrid/user-service/internal/directory"
	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/issues"
	"github.com/civicgrid/user-service/internal/logging"
	"github.com/civicgrid/user-service/internal/photos"
	"github.com/civicgrid/user-service/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var (
	cfgFile  string
	tokenUID string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "user-service",
		Short: "User directory service for the municipal issue platform",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for a local-mode user",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.Context())
		},
	}
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "UID of the user to mint a token for")

	setupFlags(rootCmd)
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("backend-mode", defaults.GetString("backend.mode"), "Backend mode (firebase, local)")
	cmd.PersistentFlags().String("firebase-project-id", "", "Firebase project ID")
	cmd.PersistentFlags().String("firebase-credentials-file", "", "Path to a service account credentials file")
	cmd.PersistentFlags().String("firebase-storage-bucket", "", "Cloud Storage bucket for profile photos")
	cmd.PersistentFlags().String("database-path", defaults.GetString("local.database_path"), "SQLite database path (local mode)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (local mode, overrides env)")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("local.token_ttl_minutes"), "Token TTL in minutes (local mode)")
	cmd.PersistentFlags().String("issues-base-url", "", "Base URL of the issue service")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "backend.mode", "backend-mode")
	bindFlag(cmd, "firebase.project_id", "firebase-project-id")
	bindFlag(cmd, "firebase.credentials_file", "firebase-credentials-file")
	bindFlag(cmd, "firebase.storage_bucket", "firebase-storage-bucket")
	bindFlag(cmd, "local.database_path", "database-path")
	bindFlag(cmd, "local.signing_secret", "signing-secret")
	bindFlag(cmd, "local.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "issues.base_url", "issues-base-url")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// backend bundles the mode-dependent adapters.
type backend struct {
	provider identity.Provider
	store    docstore.Store
	blobs    photos.BlobStore
	closers  []func() error
}

func (b *backend) close() {
	for _, closeFn := range b.closers {
		closeFn() //nolint:errcheck
	}
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	adapters, err := buildBackend(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer adapters.close()

	dir, err := directory.New(directory.Config{
		Provider: adapters.provider,
		Store:    adapters.store,
		Collections: directory.Collections{
			Residents:   appConfig.Collections.Residents,
			Services:    appConfig.Collections.Services,
			Employees:   appConfig.Collections.Employees,
			Departments: appConfig.Collections.Departments,
			Moderators:  appConfig.Collections.Moderators,
			Analysts:    appConfig.Collections.Analysts,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	var photoService *photos.Service
	if adapters.blobs != nil {
		photoService, err = photos.NewService(adapters.provider, adapters.blobs, logger)
		if err != nil {
			return err
		}
	}

	var issueClient *issues.Client
	if appConfig.IssuesBaseURL != "" {
		issueClient, err = issues.NewClient(appConfig.IssuesBaseURL, nil)
		if err != nil {
			return err
		}
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Provider:  adapters.provider,
		Directory: dir,
		Photos:    photoService,
		Issues:    issueClient,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("backend", appConfig.Mode))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildBackend(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (*backend, error) {
	if appConfig.Mode == config.ModeFirebase {
		return buildFirebaseBackend(ctx, appConfig)
	}
	return buildLocalBackend(appConfig, logger)
}

func buildFirebaseBackend(ctx context.Context, appConfig config.AppConfig) (*backend, error) {
	var opts []option.ClientOption
	if appConfig.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(appConfig.FirebaseCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: appConfig.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	firestoreClient, err := firestore.NewClient(ctx, appConfig.FirebaseProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	provider, err := identity.NewFirebaseProvider(authClient)
	if err != nil {
		return nil, err
	}
	store, err := docstore.NewFirestoreStore(firestoreClient)
	if err != nil {
		return nil, err
	}

	adapters := &backend{
		provider: provider,
		store:    store,
		closers:  []func() error{firestoreClient.Close},
	}

	if appConfig.FirebaseStorageBucket != "" {
		storageClient, err := storage.NewClient(ctx, opts...)
		if err != nil {
			adapters.close()
			return nil, fmt.Errorf("storage client: %w", err)
		}
		bucket := storageClient.Bucket(appConfig.FirebaseStorageBucket)
		blobStore, err := photos.NewGCSBlobStore(bucket, appConfig.FirebaseStorageBucket)
		if err != nil {
			adapters.close()
			return nil, err
		}
		adapters.blobs = blobStore
		adapters.closers = append(adapters.closers, storageClient.Close)
	}

	return adapters, nil
}

func buildLocalBackend(appConfig config.AppConfig, logger *zap.Logger) (*backend, error) {
	db, err := database.OpenSQLite(appConfig.LocalDatabasePath, logger)
	if err != nil {
		return nil, err
	}

	provider, err := identity.NewLocalProvider(identity.LocalProviderConfig{
		Database:      db,
		SigningSecret: []byte(appConfig.LocalSigningSecret),
		TokenTTL:      appConfig.LocalTokenTTL,
	})
	if err != nil {
		return nil, err
	}
	store, err := docstore.NewLocalStore(db)
	if err != nil {
		return nil, err
	}

	closer := func() error {
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return dbErr
		}
		return sqlDB.Close()
	}

	return &backend{provider: provider, store: store, closers: []func() error{closer}}, nil
}

func runToken(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if appConfig.Mode != config.ModeLocal {
		return fmt.Errorf("token minting is only available in local mode")
	}
	if tokenUID == "" {
		return fmt.Errorf("--uid is required")
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	adapters, err := buildLocalBackend(appConfig, logger)
	if err != nil {
		return err
	}
	defer adapters.close()

	localProvider, ok := adapters.provider.(*identity.LocalProvider)
	if !ok {
		return fmt.Errorf("unexpected provider type")
	}
	token, err := localProvider.IssueToken(ctx, tokenUID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
