package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/sifan077/PowerLink/internal/app/model"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// form builds the multipart bodies the backend expects for anything that may carry a file.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// patch marks the form as a PATCH tunnelled through POST.
func (f *form) patch() *form {
	return f.field("_method", "PATCH")
}

func (f *form) field(name, value string) *form {
	if f.err != nil {
		return f
	}
	f.err = f.w.WriteField(name, value)
	return f
}

func (f *form) file(name string, upload *model.Upload) *form {
	if f.err != nil || upload == nil {
		return f
	}

	filename := upload.Filename
	if filename == "" {
		filename = name
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = part.Write(upload.Data)
	return f
}

// finish closes the writer and returns the body with its content type.
func (f *form) finish() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.w.FormDataContentType(), nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
