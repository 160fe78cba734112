package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdfchat/pdfchat"
)

// AddRouters wires the REST surface the desktop frontend talks to.
func AddRouters(r *gin.Engine, endpoints pdfchat.EndpointSet) {
	r.Use(CORS(), RequestID())

	r.POST("/upload-pdf", UploadPDFHandler(endpoints.IndexDocument))
	r.POST("/upload-pdfs", UploadPDFsHandler(endpoints.IndexDocuments))
	r.GET("/list-pdfs", ListPDFsHandler(endpoints.ListDocuments))
	r.DELETE("/delete-pdf/:pdf_name", DeletePDFHandler(endpoints.DeleteDocument))
	r.DELETE("/clear-pdfs", ClearPDFsHandler(endpoints.ClearDocuments))
	r.POST("/ask", AskHandler(endpoints.Ask))
	r.POST("/ask-stream", AskStreamHandler(endpoints.AskStream))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
