package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/config"
	"github.com/imrishuroy/go-table-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-table-orderflow/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	var idempStore *idempotency.Store
	if cfg.IdempotencyTable != "" {
		idempStore = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	}
	p := NewProcessor(
		billing.NewArchive(clients.DynamoDB, cfg.BillsTable),
		idempStore,
		aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		logger,
	)

	// If RUN_LOCAL=true, process a single message from LOCAL_SQS_BODY and exit.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Fatal("LOCAL_SQS_BODY is required when RUN_LOCAL=true")
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: body},
			},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local handler failed", zap.Error(err), zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
}
