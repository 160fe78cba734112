package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/pdfchat/pdfchat"
)

func AddEndpoints(group micro.Group, endpoints pdfchat.EndpointSet) {
	group.AddEndpoint("index_document", IndexDocumentHandler(endpoints.IndexDocument))
	group.AddEndpoint("index_documents", IndexDocumentsHandler(endpoints.IndexDocuments))
	group.AddEndpoint("list_documents", ListDocumentsHandler(endpoints.ListDocuments))
	group.AddEndpoint("delete_document", DeleteDocumentHandler(endpoints.DeleteDocument))
	group.AddEndpoint("clear_documents", ClearDocumentsHandler(endpoints.ClearDocuments))
	group.AddEndpoint("ask", AskHandler(endpoints.Ask))
}
