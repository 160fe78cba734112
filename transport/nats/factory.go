package nats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/pdfchat/pdfchat"
)

// indexTimeout is generous; indexing embeds every chunk before the
// reply comes back.
const indexTimeout = 5 * time.Minute

// MakeEndpoints builds client endpoints talking to a remote service
// over NATS request/reply. Combine with pdfchat.ProxyMiddleware to get
// a Service implementation.
func MakeEndpoints(nc *nats.Conn, prefix string) *pdfchat.EndpointSet {
	return &pdfchat.EndpointSet{
		IndexDocument:  IndexDocumentEndpoint(nc, prefix+".index_document"),
		IndexDocuments: IndexDocumentsEndpoint(nc, prefix+".index_documents"),
		ListDocuments:  ListDocumentsEndpoint(nc, prefix+".list_documents"),
		DeleteDocument: DeleteDocumentEndpoint(nc, prefix+".delete_document"),
		ClearDocuments: ClearDocumentsEndpoint(nc, prefix+".clear_documents"),
		Ask:            AskEndpoint(nc, prefix+".ask"),
	}
}

func IndexDocumentEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(pdfchat.IndexDocumentRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, indexTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var summary pdfchat.IndexSummary
		if err := json.Unmarshal(resp.Data, &summary); err != nil {
			return nil, err
		}

		return &summary, nil
	}
}

func IndexDocumentsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(pdfchat.IndexDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, indexTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var summary pdfchat.BatchSummary
		if err := json.Unmarshal(resp.Data, &summary); err != nil {
			return nil, err
		}

		return &summary, nil
	}
}

func ListDocumentsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := nc.Request(topic, nil, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var infos []pdfchat.DocumentInfo
		if err := json.Unmarshal(resp.Data, &infos); err != nil {
			return nil, err
		}

		return infos, nil
	}
}

func DeleteDocumentEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		name, ok := request.(string)
		if !ok {
			return nil, errors.New("invalid request")
		}

		resp, err := nc.Request(topic, []byte(name), nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		return nil, Error(resp)
	}
}

func ClearDocumentsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := nc.Request(topic, nil, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		return nil, Error(resp)
	}
}

func AskEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(pdfchat.AskRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, indexTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var answer string
		if err := json.Unmarshal(resp.Data, &answer); err != nil {
			return nil, err
		}

		return answer, nil
	}
}

// Error extracts a service error from a micro reply, if any.
func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	return errors.New(code + ":" + description)
}
