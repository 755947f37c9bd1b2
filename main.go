package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/hackathon-review-backend/api"
	"github.com/rpupo63/hackathon-review-backend/config"
	"github.com/rpupo63/hackathon-review-backend/database"
	"github.com/rpupo63/hackathon-review-backend/metrics"
	"github.com/rpupo63/hackathon-review-backend/services"
	"github.com/rpupo63/hackathon-review-backend/workers"
	"github.com/rpupo63/hackathon-review-backend/workflow"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := pflag.Bool("migrate", false, "create or update the schema, then exit")
	seed := pflag.String("seed", "", "load hackathon fixtures from a YAML file, then exit")
	generateQueries := pflag.String("generate-queries", "", "write gorm/gen query helpers to this directory, then exit")
	worker := pflag.Bool("worker", false, "also run the outbox dispatcher")
	pflag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Info().Msg("Initializing app...")

	if err := godotenv.Load(*envFile); err != nil {
		zlog.Warn().Err(err).Str("file", *envFile).Msg("no dotenv file loaded")
	}
	cfg := config.New()

	ctx := context.Background()
	if path := config.GetString(cfg, "SSM_PARAMETER_PATH", ""); path != "" {
		if err := loadSSM(ctx, cfg, path); err != nil {
			zlog.Fatal().Err(err).Msg("Error loading parameters from SSM")
		}
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormDB, err := database.Open(
		config.GetString(cfg, "DATABASE_URL", ""),
		config.GetList(cfg, "DATABASE_REPLICA_URLS"),
		&gorm.Config{PrepareStmt: false, Logger: gormLogger, TranslateError: true},
	)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Error connecting to database")
	}
	db := database.New(gormDB)
	if err := db.Ping(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("Error testing database connection")
	}

	switch {
	case *migrate:
		if err := db.Migrate(); err != nil {
			zlog.Fatal().Err(err).Msg("Error migrating schema")
		}
		zlog.Info().Msg("schema migrated")
		return
	case *seed != "":
		f, err := os.Open(*seed)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error opening seed file")
		}
		defer f.Close()
		n, err := db.Seed(ctx, f, workflow.ValidateHackathon)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error seeding hackathons")
		}
		zlog.Info().Int("inserted", n).Msg("seed complete")
		return
	case *generateQueries != "":
		if err := database.GenerateQueries(gormDB, *generateQueries); err != nil {
			zlog.Fatal().Err(err).Msg("Error generating queries")
		}
		return
	}

	metrics.Register(prometheus.DefaultRegisterer)

	svc := workflow.New(db.HackathonRepo(), db.ApplicationRepo())
	deps := api.Dependencies{
		Workflow: svc,
		Database: db,
		Gatherer: prometheus.DefaultGatherer,
	}

	if bucket := config.GetString(cfg, "S3_BUCKET", ""); bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(cfg, "AWS_REGION", "ap-south-1")))
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error loading AWS configuration")
		}
		uploads, err := services.NewUploadSigner(s3.NewFromConfig(awsCfg), bucket, config.GetSeconds(cfg, "UPLOAD_URL_TTL_SECONDS", 15*time.Minute))
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error creating upload signer")
		}
		deps.Uploads = uploads
	}

	var search *services.SearchIndex
	if addresses := config.GetList(cfg, "ELASTIC_URL"); len(addresses) > 0 {
		search, err = services.NewSearchIndex(addresses, config.GetString(cfg, "ELASTIC_INDEX", services.DefaultApplicationIndex), nil)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error creating search client")
		}
		if err := search.EnsureIndex(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("Error preparing search index")
		}
		deps.Search = search
	}

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Error initializing server")
	}

	errChannel := make(chan error, 3)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if *worker {
		sinks, err := buildSinks(cfg, search)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Error configuring outbox sinks")
		}
		dispatcher := workers.New(db, sinks,
			workers.WithBatchSize(config.GetInt(cfg, "OUTBOX_BATCH_SIZE", 100)),
			workers.WithPollInterval(config.GetSeconds(cfg, "OUTBOX_POLL_SECONDS", time.Second)),
			workers.WithRetryInterval(config.GetSeconds(cfg, "DLQ_RETRY_SECONDS", 30*time.Second)),
			workers.WithMaxAttempts(config.GetInt(cfg, "DLQ_MAX_ATTEMPTS", 5)),
		)
		go func() {
			if err := dispatcher.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				errChannel <- fmt.Errorf("outbox dispatcher: %w", err)
			}
		}()
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	zlog.Info().Msgf("Closing server: %v", fatalErr)

	stopWorker()
	server.ShutdownGracefully(30 * time.Second)
	svc.Wait()
}

// buildSinks returns the outbox sinks whose credentials are configured.
func buildSinks(cfg map[string]string, search *services.SearchIndex) ([]workers.Sink, error) {
	var sinks []workers.Sink

	if key := config.GetString(cfg, "RESEND_API_KEY", ""); key != "" {
		email, err := services.NewEmailSender(
			key,
			config.GetString(cfg, "RESEND_FROM_EMAIL", ""),
			config.GetString(cfg, "RESEND_BASE_URL", ""),
			nil,
		)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, email)
	}

	if sid := config.GetString(cfg, "TWILIO_ACCOUNT_SID", ""); sid != "" {
		sms, err := services.NewSMSSender(
			sid,
			config.GetString(cfg, "TWILIO_AUTH_TOKEN", ""),
			config.GetString(cfg, "TWILIO_FROM_NUMBER", ""),
			config.GetString(cfg, "SMS_COUNTRY_CODE", "91"),
		)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sms)
	}

	if search != nil {
		sinks = append(sinks, search)
	}

	if len(sinks) == 0 {
		zlog.Warn().Msg("no outbox sinks configured; events will be marked processed without delivery")
	}
	return sinks, nil
}

func loadSSM(ctx context.Context, cfg map[string]string, path string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(cfg, "AWS_REGION", "ap-south-1")))
	if err != nil {
		return err
	}
	n, err := config.LoadSSM(ctx, ssm.NewFromConfig(awsCfg), path, cfg)
	if err != nil {
		return err
	}
	zlog.Info().Int("parameters", n).Str("path", path).Msg("loaded parameters from SSM")
	return nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
