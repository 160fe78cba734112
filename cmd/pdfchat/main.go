package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"

	"github.com/pdfchat/pdfchat"
	"github.com/pdfchat/pdfchat/extract"
	"github.com/pdfchat/pdfchat/ledger"
	"github.com/pdfchat/pdfchat/llm/gemini"
	"github.com/pdfchat/pdfchat/persistence/chromem"

	httpT "github.com/pdfchat/pdfchat/transport/http"
	natsT "github.com/pdfchat/pdfchat/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdfchat",
		Usage: "PDFChat service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the PDFChat service",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8000",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL",
				Sources: cli.EnvVars("NATS_URL"),
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".pdfchat")
	}

	godotenv.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	var cfg pdfchat.Config

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err == nil {
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return err
		}
	}

	cfg.ApplyDefaults()

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(path, "documents")
	}

	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return err
	}

	repo := ledger.NewFileRepository(cfg.Storage.Path)
	store := chromem.NewStore(cfg.Storage.Path)
	extractor := extract.NewPDFExtractor()
	models := gemini.NewFactory(cfg.Gemini)

	svc := pdfchat.NewService(cfg, repo, store, extractor, models)
	defer svc.Close()

	svc = pdfchat.LoggingMiddleware(log)(svc)

	fieldKeys := []string{"method", "error"}
	requests := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "pdfchat",
		Subsystem: "service",
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, fieldKeys)
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "pdfchat",
		Subsystem: "service",
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests.",
	}, fieldKeys)

	svc = pdfchat.InstrumentingMiddleware(requests, latency)(svc)

	endpoints := pdfchat.EndpointSet{
		IndexDocument:  pdfchat.IndexDocumentEndpoint(svc),
		IndexDocuments: pdfchat.IndexDocumentsEndpoint(svc),
		ListDocuments:  pdfchat.ListDocumentsEndpoint(svc),
		DeleteDocument: pdfchat.DeleteDocumentEndpoint(svc),
		ClearDocuments: pdfchat.ClearDocumentsEndpoint(svc),
		Ask:            pdfchat.AskEndpoint(svc),
		AskStream:      pdfchat.AskStreamEndpoint(svc),
	}

	natsURL := cmd.String("nats")
	if natsURL != "" {
		nc, err := nats.Connect(natsURL,
			nats.Name("PDFChat Server"),
		)

		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "pdfchat",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup("pdfchat")
		natsT.AddEndpoints(root, endpoints)
	}

	r := gin.Default()
	httpT.AddRouters(r, endpoints)

	httpAddr := cmd.String("http-addr")
	go r.Run(httpAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
