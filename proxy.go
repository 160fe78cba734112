package pdfchat

import (
	"context"
	"errors"

	"github.com/pdfchat/pdfchat/llm"
)

// ProxyMiddleware turns a remote endpoint set (for example the NATS
// client endpoints) back into a Service, so callers do not care
// whether the implementation is local or remote. Streaming answers are
// not proxied; request/reply transports cannot carry them.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return nil
}

func (mw *proxyMiddleware) IndexDocument(ctx context.Context, apiKey, filename string, content []byte) (*IndexSummary, error) {
	req := IndexDocumentRequest{
		APIKey:   apiKey,
		Filename: filename,
		Content:  content,
	}

	resp, err := mw.endpoints.IndexDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	summary, ok := resp.(*IndexSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return summary, nil
}

func (mw *proxyMiddleware) IndexDocuments(ctx context.Context, apiKey string, files []Upload) (*BatchSummary, error) {
	req := IndexDocumentsRequest{
		APIKey: apiKey,
		Files:  files,
	}

	resp, err := mw.endpoints.IndexDocuments(ctx, req)
	if err != nil {
		return nil, err
	}

	summary, ok := resp.(*BatchSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return summary, nil
}

func (mw *proxyMiddleware) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	resp, err := mw.endpoints.ListDocuments(ctx, nil)
	if err != nil {
		return nil, err
	}

	infos, ok := resp.([]DocumentInfo)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return infos, nil
}

func (mw *proxyMiddleware) DeleteDocument(ctx context.Context, name string) error {
	_, err := mw.endpoints.DeleteDocument(ctx, name)
	return err
}

func (mw *proxyMiddleware) ClearDocuments(ctx context.Context) error {
	_, err := mw.endpoints.ClearDocuments(ctx, nil)
	return err
}

func (mw *proxyMiddleware) Ask(ctx context.Context, apiKey, question, document string) (string, error) {
	req := AskRequest{
		APIKey:   apiKey,
		Question: question,
		Document: document,
	}

	resp, err := mw.endpoints.Ask(ctx, req)
	if err != nil {
		return "", err
	}

	answer, ok := resp.(string)
	if !ok {
		return "", errors.New("invalid response type")
	}

	return answer, nil
}

func (mw *proxyMiddleware) AskStream(ctx context.Context, apiKey, question, document string) (<-chan llm.Fragment, error) {
	return nil, ErrNotSupported
}
