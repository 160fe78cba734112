package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/pdfchat/pdfchat"
	"github.com/pdfchat/pdfchat/llm"
)

func UploadPDFHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Error(err)
			c.Abort()
			return
		}

		content, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Error(err)
			c.Abort()
			return
		}

		req := pdfchat.IndexDocumentRequest{
			APIKey:   c.PostForm("api_key"),
			Filename: header.Filename,
			Content:  content,
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abortWithError(c, err)
			return
		}

		summary, ok := resp.(*pdfchat.IndexSummary)
		if !ok {
			abortWithError(c, errors.New("invalid response type"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         fmt.Sprintf("PDF %q indexed successfully.", summary.Filename),
			"collection_name": summary.Collection,
			"pages":           summary.Pages,
			"chunks":          summary.Chunks,
		})
	}
}

func UploadPDFsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Error(err)
			c.Abort()
			return
		}

		files := make([]pdfchat.Upload, 0, len(form.File["files"]))
		for _, header := range form.File["files"] {
			content, err := readUpload(header)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				c.Error(err)
				c.Abort()
				return
			}

			files = append(files, pdfchat.Upload{
				Filename: header.Filename,
				Content:  content,
			})
		}

		req := pdfchat.IndexDocumentsRequest{
			APIKey: c.PostForm("api_key"),
			Files:  files,
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abortWithError(c, err)
			return
		}

		summary, ok := resp.(*pdfchat.BatchSummary)
		if !ok {
			abortWithError(c, errors.New("invalid response type"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       fmt.Sprintf("Successfully indexed %d PDF(s)", len(summary.Indexed)),
			"indexed_files": summary.Indexed,
			"errors":        summary.Failures,
		})
	}
}

func ListPDFsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			abortWithError(c, err)
			return
		}

		infos, ok := resp.([]pdfchat.DocumentInfo)
		if !ok {
			abortWithError(c, errors.New("invalid response type"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"pdfs":  infos,
			"count": len(infos),
		})
	}
}

func DeletePDFHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("pdf_name")
		if name == "" {
			err := errors.New("pdf name is required")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if _, err := endpoint(ctx, name); err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("PDF %q deleted successfully", name),
		})
	}
}

func ClearPDFsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, err := endpoint(ctx, nil); err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "All PDFs cleared successfully",
		})
	}
}

func AskHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := pdfchat.AskRequest{
			APIKey:   c.PostForm("api_key"),
			Question: c.PostForm("question"),
			Document: c.PostForm("pdf_name"),
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			abortWithError(c, err)
			return
		}

		answer, ok := resp.(string)
		if !ok {
			abortWithError(c, errors.New("invalid response type"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"answer": answer})
	}
}

func AskStreamHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := pdfchat.AskRequest{
			APIKey:   c.PostForm("api_key"),
			Question: c.PostForm("question"),
			Document: c.PostForm("pdf_name"),
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(statusOf(err), friendlyMessage(err))
			c.Error(err)
			c.Abort()
			return
		}

		fragments, ok := resp.(<-chan llm.Fragment)
		if !ok {
			abortWithError(c, errors.New("invalid response type"))
			return
		}

		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)

		c.Stream(func(w io.Writer) bool {
			fragment, ok := <-fragments
			if !ok {
				return false
			}

			if fragment.Err != nil {
				fmt.Fprintf(w, "\n\nError: %s", fragment.Err)
				return false
			}

			io.WriteString(w, fragment.Text)
			return true
		})
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": friendlyMessage(err)})
	c.Error(err)
	c.Abort()
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, pdfchat.ErrMissingAPIKey),
		errors.Is(err, pdfchat.ErrNoFilesProvided),
		errors.Is(err, pdfchat.ErrNoExtractableText):
		return http.StatusBadRequest

	case errors.Is(err, pdfchat.ErrDocumentAlreadyIndexed):
		return http.StatusConflict

	case errors.Is(err, pdfchat.ErrDocumentNotFound),
		errors.Is(err, pdfchat.ErrNoDocumentsIndexed):
		return http.StatusNotFound

	default:
		return http.StatusExpectationFailed
	}
}

func friendlyMessage(err error) string {
	switch {
	case errors.Is(err, pdfchat.ErrMissingAPIKey):
		return "Please enter your API key in settings."

	case errors.Is(err, pdfchat.ErrNoDocumentsIndexed):
		return pdfchat.NoDocumentsIndexedMessage

	default:
		return err.Error()
	}
}
