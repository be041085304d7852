package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/danthegoodman1/contractors/contractors"
	"github.com/danthegoodman1/contractors/crdb"
	"github.com/danthegoodman1/contractors/data_api"
	"github.com/danthegoodman1/contractors/geocode"
	"github.com/danthegoodman1/contractors/gologger"
	"github.com/danthegoodman1/contractors/http_server"
	"github.com/danthegoodman1/contractors/migrations"
	"github.com/danthegoodman1/contractors/s3_helper"
	"github.com/danthegoodman1/contractors/secrets"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/jackc/pgx/v4/pgxpool"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting contractors api")
	ctx := logger.WithContext(context.Background())

	sess, err := newAWSSession()
	if err != nil {
		logger.Error().Err(err).Msg("error making aws session")
		os.Exit(1)
	}

	var (
		exec data_api.Executor
		pool *pgxpool.Pool
	)
	switch utils.DB_BACKEND {
	case "postgres":
		pool, err = connectPostgres(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("error connecting to postgres")
			os.Exit(1)
		}
		exec = crdb.NewExecutor(pool)
	case "data_api":
		exec, err = data_api.NewRDSExecutor(rdsdataservice.New(sess), data_api.ConfigFromEnv())
		if err != nil {
			logger.Error().Err(err).Msg("error creating data api executor")
			os.Exit(1)
		}
	default:
		logger.Error().Str("backend", utils.DB_BACKEND).Msg("unknown DB_BACKEND")
		os.Exit(1)
	}

	opts := http_server.Options{
		Contractors: contractors.NewService(exec),
	}

	if utils.MAPS_API_KEY_SECRET_ARN != "" {
		apiKey, err := secrets.NewStore(sess, utils.MAPS_SECRET_REGION).GetJSONField(ctx, utils.MAPS_API_KEY_SECRET_ARN, "gmaps_api_key")
		if err != nil {
			logger.Error().Err(err).Msg("error getting maps api key")
			os.Exit(1)
		}
		opts.Geocoder, err = geocode.NewGoogleGeocoder(apiKey)
		if err != nil {
			logger.Error().Err(err).Msg("error creating geocoder")
			os.Exit(1)
		}
	} else {
		logger.Warn().Msg("MAPS_API_KEY_SECRET_ARN not set, contractor search is disabled")
	}

	if utils.S3_BUCKET_NAME != "" {
		expiry := time.Second * time.Duration(utils.GetEnvOrDefaultInt("PRESIGN_EXPIRY_SEC", 900))
		opts.Presigner = s3_helper.NewPresigner(sess, utils.S3_BUCKET_NAME, utils.S3_ENDPOINT, expiry)
	}

	httpServer := http_server.StartHTTPServer(opts)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	if pool != nil {
		pool.Close()
	}
}

// newAWSSession is shared by every AWS client. Service specific endpoints
// belong on the client config, not here.
func newAWSSession() (*session.Session, error) {
	conf := &aws.Config{
		Region: aws.String(utils.AWS_DEFAULT_REGION),
	}
	if utils.AWS_ACCESS_KEY_ID != "" {
		conf.Credentials = credentials.NewEnvCredentials()
	}
	return session.NewSession(conf)
}

func connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	if utils.RUN_MIGRATIONS {
		if _, err := migrations.RunMigrations(utils.CRDB_DSN); err != nil {
			return nil, fmt.Errorf("error in RunMigrations: %w", err)
		}
	}
	if err := migrations.CheckMigrations(utils.CRDB_DSN); err != nil {
		return nil, fmt.Errorf("error in CheckMigrations: %w", err)
	}
	return crdb.ConnectToDB(ctx, utils.CRDB_DSN)
}
