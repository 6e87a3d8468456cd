package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"text2phenotype.com/hmmpos/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const maxRetries = 4

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

var errNoSession = errors.New("could not initialize S3 session")

type EnvironmentConfig struct {
	BucketName  string `envconfig:"HMMPOS_STORAGE_BUCKET" required:"true"`
	Env         string `envconfig:"HMMPOS_ENV" default:"prod"`
	Region      string `envconfig:"HMMPOS_AWS_REGION" required:"true"`
	AwsEndpoint string `envconfig:"HMMPOS_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"HMMPOS_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"HMMPOS_AWS_ACCESS_KEY" default:""`
}

// Client moves corpora, input texts and tagging results in and out of one
// bucket. The AWS session is replaced whenever a call fails with it.
type Client struct {
	env EnvironmentConfig

	mu   sync.Mutex
	sess *session.Session
}

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	return NewWithConfig(env)
}

func NewWithConfig(env EnvironmentConfig) (*Client, error) {
	client := Client{env: env}
	if _, err := client.refresh(nil); err != nil {
		return nil, err
	}
	return &client, nil
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Upload(ctx context.Context, data []byte, key string) error {
	return client.withSession(func(sess *session.Session) error {
		log := client.keyLogger(clientLogger, key)
		uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: newSDKLogger(client.keyLogger(sdkLogger, key))}))
		log.Debug().Int("size", len(data)).Msg("Uploading the file")
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(client.env.BucketName),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return err
	})
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := client.withSession(func(sess *session.Session) error {
		log := client.keyLogger(clientLogger, key)
		downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: newSDKLogger(client.keyLogger(sdkLogger, key))}))
		buf := aws.NewWriteAtBuffer([]byte{})

		log.Debug().Msg("Downloading file")
		size, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(client.env.BucketName),
			Key:    aws.String(key),
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to download file")
			return err
		}
		log.Debug().Msgf("Downloaded %v bytes", size)
		result = buf.Bytes()
		return nil
	})
	return result, err
}

// withSession runs fn once with the current session, and once more with a
// fresh session if the first attempt failed.
func (client *Client) withSession(fn func(*session.Session) error) error {
	sess, err := client.current()
	if err != nil {
		return err
	}
	err = fn(sess)
	if err == nil {
		return nil
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	sess, refreshErr := client.refresh(sess)
	if refreshErr != nil {
		return fmt.Errorf("%w (refresh failed: %v)", err, refreshErr)
	}
	return fn(sess)
}

func (client *Client) current() (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess == nil {
		return nil, errNoSession
	}
	return client.sess, nil
}

// refresh replaces stale with a new session. When another caller already
// replaced it the newer session is returned as is.
func (client *Client) refresh(stale *session.Session) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess != nil && client.sess != stale {
		return client.sess, nil
	}
	sess, err := client.acquireSession()
	client.sess = sess
	return sess, err
}

func (client *Client) keyLogger(base zerolog.Logger, key string) zerolog.Logger {
	return base.With().
		Str("key", key).
		Str("bucket", client.env.BucketName).
		Logger()
}

func (client *Client) roleConfig() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(maxRetries).
		WithLogLevel(aws.LogDebug)
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, err
	}
	cfg := client.roleConfig().WithCredentials(creds)
	if client.env.Env == "dev" && client.env.AwsEndpoint != "" {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// acquireSession prefers the instance role and falls back to credentials
// from the environment. Either session must pass an STS identity check.
func (client *Client) acquireSession() (*session.Session, error) {
	sess, err := newCheckedSession(client.roleConfig())
	if err == nil {
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return sess, nil
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return nil, errNoSession
	}
	sess, err = newCheckedSession(cfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, errNoSession
	}
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return sess, nil
}

func newCheckedSession(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

type sdkLog struct {
	log zerolog.Logger
}

func newSDKLogger(log zerolog.Logger) aws.Logger {
	return &sdkLog{log: log}
}

func (l *sdkLog) Log(v ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(v...))
}
