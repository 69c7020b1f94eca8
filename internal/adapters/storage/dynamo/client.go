package dynamo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"companion-connect/internal/platform/httpclient"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const DefaultTable = "animals"

// Config del cliente DynamoDB. Sin credenciales explícitas se usa la cadena
// por defecto (AWS_ACCESS_KEY_ID, perfil, rol de la instancia).
type Config struct {
	Region   string
	Table    string
	Endpoint string // opcional; DynamoDB Local / LocalStack

	// Opcionales: si faltan se usa la cadena de credenciales por defecto.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Timeout del cliente HTTP hacia DynamoDB.
	Timeout time.Duration
	// PageSize es el Limit de cada Scan (0 = el default de DynamoDB, 1MB por página).
	PageSize int32

	// Transport permite inyectar un RoundTripper (tests).
	Transport http.RoundTripper
}

// Open crea el cliente y devuelve el repo sobre la tabla configurada.
func Open(ctx context.Context, cfg Config) (*AnimalsRepo, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultTable
	}
	return NewAnimalsRepo(client, table, cfg.PageSize), nil
}

// NewClient construye el *dynamodb.Client.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	hc := httpclient.NewWithTransport(cfg.Timeout, cfg.Transport)
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.HTTPClient = hc
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
