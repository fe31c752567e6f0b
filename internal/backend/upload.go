package backend

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody streams req as a multipart/form-data body with a binary file
// part followed by a category field. The returned reader fails with the
// writer's error if the source file cannot be read.
func multipartBody(req UploadRequest) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadParts(mw, req))
	}()

	return pr, mw.FormDataContentType()
}

func writeUploadParts(mw *multipart.Writer, req UploadRequest) error {
	filename := req.Filename
	if filename == "" {
		filename = "upload.bin"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, req.Body); err != nil {
		return fmt.Errorf("streaming file: %w", err)
	}

	if err := mw.WriteField("category", req.Category); err != nil {
		return fmt.Errorf("writing category: %w", err)
	}

	return mw.Close()
}
