package data_api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/aws/aws-sdk-go/service/rdsdataservice/rdsdataserviceiface"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/rs/zerolog"
)

var (
	ErrMissingResourceARN = utils.PermError("missing database resource arn")
	ErrMissingSecretARN   = utils.PermError("missing database secret arn")
	ErrMissingDatabase    = utils.PermError("missing database name")
)

type (
	// Executor runs one SQL statement with named parameters and returns the
	// result in the Data API's column metadata + tagged cell shape.
	Executor interface {
		ExecuteStatement(ctx context.Context, sql string, params []*rdsdataservice.SqlParameter) (*rdsdataservice.ExecuteStatementOutput, error)
	}

	Config struct {
		ResourceARN string
		SecretARN   string
		Database    string
		// Optional, the cluster default is used when empty
		Schema string
		// How many times a transient failure is retried. Default 5.
		MaxRetries uint64
	}

	RDSExecutor struct {
		client rdsdataserviceiface.RDSDataServiceAPI
		config Config
	}
)

func ConfigFromEnv() Config {
	return Config{
		ResourceARN: utils.DATABASE_ARN,
		SecretARN:   utils.DATABASE_SECRET_ARN,
		Database:    utils.DATABASE_NAME,
		Schema:      utils.DATABASE_SCHEMA,
		MaxRetries:  uint64(utils.GetEnvOrDefaultInt("DATA_API_MAX_RETRIES", 5)),
	}
}

func (c Config) Validate() error {
	if c.ResourceARN == "" {
		return ErrMissingResourceARN
	}
	if c.SecretARN == "" {
		return ErrMissingSecretARN
	}
	if c.Database == "" {
		return ErrMissingDatabase
	}
	return nil
}

func NewRDSExecutor(client rdsdataserviceiface.RDSDataServiceAPI, config Config) (*RDSExecutor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("error in config.Validate: %w", err)
	}
	return &RDSExecutor{
		client: client,
		config: config,
	}, nil
}

func (e *RDSExecutor) ExecuteStatement(ctx context.Context, sql string, params []*rdsdataservice.SqlParameter) (*rdsdataservice.ExecuteStatementOutput, error) {
	logger := zerolog.Ctx(ctx)

	input := &rdsdataservice.ExecuteStatementInput{
		ResourceArn:           aws.String(e.config.ResourceARN),
		SecretArn:             aws.String(e.config.SecretARN),
		Database:              aws.String(e.config.Database),
		Sql:                   aws.String(sql),
		Parameters:            params,
		IncludeResultMetadata: aws.Bool(true),
	}
	if e.config.Schema != "" {
		input.Schema = aws.String(e.config.Schema)
	}

	var (
		out     *rdsdataservice.ExecuteStatementOutput
		attempt int
	)
	s := time.Now()
	err := backoff.Retry(func() error {
		attempt++
		var err error
		out, err = e.client.ExecuteStatementWithContext(ctx, input)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("retryable data api error")
		return err
	}, e.backOff(ctx))
	if err != nil {
		return nil, fmt.Errorf("error in ExecuteStatementWithContext after %d attempts: %w", attempt, err)
	}

	logger.Debug().Int("attempts", attempt).Int("records", len(out.Records)).Str("durationHuman", time.Since(s).String()).Msg("executed statement")
	return out, nil
}

func (e *RDSExecutor) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 45 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, e.config.MaxRetries), ctx)
}

// IsRetryable reports whether a Data API error is worth another attempt.
// Anything marked permanent (utils.PermError, result set errors) never is.
// Aurora Serverless answers "Communications link failure" while it resumes.
func IsRetryable(err error) bool {
	if utils.IsPermanentError(err) {
		return false
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case "DatabaseResumingException",
		rdsdataservice.ErrCodeServiceUnavailableError,
		rdsdataservice.ErrCodeInternalServerErrorException,
		"ThrottlingException":
		return true
	case rdsdataservice.ErrCodeBadRequestException:
		return strings.Contains(aerr.Message(), "Communications link failure")
	}
	return false
}
