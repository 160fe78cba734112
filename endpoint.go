package pdfchat

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	IndexDocument  endpoint.Endpoint
	IndexDocuments endpoint.Endpoint
	ListDocuments  endpoint.Endpoint
	DeleteDocument endpoint.Endpoint
	ClearDocuments endpoint.Endpoint
	Ask            endpoint.Endpoint
	AskStream      endpoint.Endpoint
}

type IndexDocumentRequest struct {
	APIKey   string `json:"api_key"`
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

func IndexDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IndexDocumentRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IndexDocument(ctx, req.APIKey, req.Filename, req.Content)
	}
}

type IndexDocumentsRequest struct {
	APIKey string   `json:"api_key"`
	Files  []Upload `json:"files"`
}

func IndexDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IndexDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IndexDocuments(ctx, req.APIKey, req.Files)
	}
}

func ListDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.ListDocuments(ctx)
	}
}

func DeleteDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		name, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.DeleteDocument(ctx, name)
		return nil, err
	}
}

func ClearDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		err := svc.ClearDocuments(ctx)
		return nil, err
	}
}

type AskRequest struct {
	APIKey   string `json:"api_key"`
	Question string `json:"question"`
	Document string `json:"pdf_name,omitempty"`
}

func AskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AskRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Ask(ctx, req.APIKey, req.Question, req.Document)
	}
}

func AskStreamEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AskRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.AskStream(ctx, req.APIKey, req.Question, req.Document)
	}
}
