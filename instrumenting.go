package pdfchat

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/pdfchat/pdfchat/llm"
)

func InstrumentingMiddleware(requests metrics.Counter, latency metrics.Histogram) ServiceMiddleware {
	return func(next Service) Service {
		return &instrumentingMiddleware{
			requests: requests,
			latency:  latency,
			next:     next,
		}
	}
}

type instrumentingMiddleware struct {
	requests metrics.Counter
	latency  metrics.Histogram
	next     Service
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	labels := []string{
		"method", method,
		"error", strconv.FormatBool(err != nil),
	}

	mw.requests.With(labels...).Add(1)
	mw.latency.With(labels...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Close() error {
	return mw.next.Close()
}

func (mw *instrumentingMiddleware) IndexDocument(ctx context.Context, apiKey, filename string, content []byte) (summary *IndexSummary, err error) {
	defer func(begin time.Time) {
		mw.observe("index_document", begin, err)
	}(time.Now())

	return mw.next.IndexDocument(ctx, apiKey, filename, content)
}

func (mw *instrumentingMiddleware) IndexDocuments(ctx context.Context, apiKey string, files []Upload) (summary *BatchSummary, err error) {
	defer func(begin time.Time) {
		mw.observe("index_documents", begin, err)
	}(time.Now())

	return mw.next.IndexDocuments(ctx, apiKey, files)
}

func (mw *instrumentingMiddleware) ListDocuments(ctx context.Context) (infos []DocumentInfo, err error) {
	defer func(begin time.Time) {
		mw.observe("list_documents", begin, err)
	}(time.Now())

	return mw.next.ListDocuments(ctx)
}

func (mw *instrumentingMiddleware) DeleteDocument(ctx context.Context, name string) (err error) {
	defer func(begin time.Time) {
		mw.observe("delete_document", begin, err)
	}(time.Now())

	return mw.next.DeleteDocument(ctx, name)
}

func (mw *instrumentingMiddleware) ClearDocuments(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		mw.observe("clear_documents", begin, err)
	}(time.Now())

	return mw.next.ClearDocuments(ctx)
}

func (mw *instrumentingMiddleware) Ask(ctx context.Context, apiKey, question, document string) (answer string, err error) {
	defer func(begin time.Time) {
		mw.observe("ask", begin, err)
	}(time.Now())

	return mw.next.Ask(ctx, apiKey, question, document)
}

func (mw *instrumentingMiddleware) AskStream(ctx context.Context, apiKey, question, document string) (fragments <-chan llm.Fragment, err error) {
	defer func(begin time.Time) {
		mw.observe("ask_stream", begin, err)
	}(time.Now())

	return mw.next.AskStream(ctx, apiKey, question, document)
}
