package pdfchat

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdfchat/pdfchat/llm"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "pdfchat"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) IndexDocument(ctx context.Context, apiKey, filename string, content []byte) (*IndexSummary, error) {
	log := mw.log.With(
		zap.String("action", "index_document"),
		zap.String("filename", filename),
		zap.Int("size", len(content)),
	)

	summary, err := mw.next.IndexDocument(ctx, apiKey, filename, content)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("document indexed",
		zap.String("collection", summary.Collection),
		zap.Int("pages", summary.Pages),
		zap.Int("chunks", summary.Chunks),
	)
	return summary, nil
}

func (mw *loggingMiddleware) IndexDocuments(ctx context.Context, apiKey string, files []Upload) (*BatchSummary, error) {
	log := mw.log.With(
		zap.String("action", "index_documents"),
		zap.Int("files", len(files)),
	)

	summary, err := mw.next.IndexDocuments(ctx, apiKey, files)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("batch indexed",
		zap.Int("indexed", len(summary.Indexed)),
		zap.Int("failed", len(summary.Failures)),
	)
	return summary, nil
}

func (mw *loggingMiddleware) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	log := mw.log.With(
		zap.String("action", "list_documents"),
	)

	infos, err := mw.next.ListDocuments(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("documents listed", zap.Int("count", len(infos)))
	return infos, nil
}

func (mw *loggingMiddleware) DeleteDocument(ctx context.Context, name string) error {
	log := mw.log.With(
		zap.String("action", "delete_document"),
		zap.String("document", name),
	)

	err := mw.next.DeleteDocument(ctx, name)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("document deleted")
	return nil
}

func (mw *loggingMiddleware) ClearDocuments(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "clear_documents"),
	)

	err := mw.next.ClearDocuments(ctx)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("documents cleared")
	return nil
}

func (mw *loggingMiddleware) Ask(ctx context.Context, apiKey, question, document string) (string, error) {
	log := mw.log.With(
		zap.String("action", "ask"),
	)

	if document != "" {
		log = log.With(
			zap.String("document", document),
		)
	}

	answer, err := mw.next.Ask(ctx, apiKey, question, document)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("question answered", zap.Int("length", len(answer)))
	return answer, nil
}

func (mw *loggingMiddleware) AskStream(ctx context.Context, apiKey, question, document string) (<-chan llm.Fragment, error) {
	log := mw.log.With(
		zap.String("action", "ask_stream"),
	)

	if document != "" {
		log = log.With(
			zap.String("document", document),
		)
	}

	fragments, err := mw.next.AskStream(ctx, apiKey, question, document)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("answer stream started")
	return fragments, nil
}
