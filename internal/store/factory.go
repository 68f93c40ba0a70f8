package store

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/coffee-machine/internal/config"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Open constructs the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	log.WithFields(log.Fields{
		"backend": cfg.Backend,
		"machine": cfg.MachineID,
	}).Info("store: opening backend")

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.MachineID), nil

	case BackendSQLite:
		s, err := NewSQLite(cfg.SQLitePath, cfg.MachineID)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendPostgres:
		s, err := NewPostgres(cfg.DatabaseURL, cfg.MachineID)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendRedis:
		cli, err := redisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(cli, cfg.MachineID), nil

	case BackendDynamoDB:
		cli, err := ddbClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		s, err := NewDynamoStore(ctx, cfg.DynamoDB.Table, cli, cfg.MachineID)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// redisClient connects and pings so a bad address fails at startup.
func redisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cli := redis.NewClient(&redis.Options{
		Addr:      fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Username:  cfg.User,
		Password:  cfg.Pass,
		DB:        cfg.DB,
		TLSConfig: tlsConfig,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return cli, nil
}

// ddbClient uses the default AWS chain, or static test credentials when an
// endpoint override points at a local emulator.
func ddbClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider("x", "x", "")
		}
	}), nil
}
