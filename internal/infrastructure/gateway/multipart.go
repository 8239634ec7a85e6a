package gateway

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// MaxDocumentBytes caps profile documents and pictures.
const MaxDocumentBytes = 5 * 1024 * 1024

// MaxPDFBytes caps application form PDFs and certificates.
const MaxPDFBytes = 20 * 1024 * 1024

const mimePDF = "application/pdf"

// filePolicy is what a given upload slot accepts.
type filePolicy struct {
	maxBytes int64
	// accept is a list of MIME types; a trailing "/" matches a family.
	accept []string
	reject string
}

var (
	pdfOnly    = filePolicy{maxBytes: MaxPDFBytes, reject: "Please select a valid PDF file", accept: []string{mimePDF}}
	imageOnly  = filePolicy{maxBytes: MaxDocumentBytes, reject: "Please select an image file", accept: []string{"image/"}}
	profileDoc = filePolicy{maxBytes: MaxDocumentBytes}
)

type multipartFile struct {
	upload ports.Upload
	policy filePolicy
}

type multipartBody struct {
	fields [][2]string
	files  []multipartFile
}

func newForm() *multipartBody { return &multipartBody{} }

func (m *multipartBody) field(name, value string) *multipartBody {
	if value != "" {
		m.fields = append(m.fields, [2]string{name, value})
	}
	return m
}

func (m *multipartBody) file(u ports.Upload, p filePolicy) *multipartBody {
	m.files = append(m.files, multipartFile{upload: u, policy: p})
	return m
}

// encode buffers the whole body; uploads are small documents.
func (m *multipartBody) encode() (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for _, f := range m.fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		data, mtype, err := readUpload(f.upload, f.policy)
		if err != nil {
			return nil, "", err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.upload.Field, filepath.Base(f.upload.Filename)))
		h.Set("Content-Type", mtype)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func readUpload(u ports.Upload, p filePolicy) ([]byte, string, error) {
	field := u.Field
	if u.Content == nil {
		return nil, "", domain.ValidationErrors{field: "Please select a file"}
	}
	limit := p.maxBytes
	reader := u.Content
	if limit > 0 {
		reader = io.LimitReader(u.Content, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("gateway: read %s: %w", u.Filename, err)
	}
	if len(data) == 0 {
		return nil, "", domain.ValidationErrors{field: "File is empty"}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, "", domain.ValidationErrors{field: fmt.Sprintf("File too large (max %s)", humanize.IBytes(uint64(limit)))}
	}
	mtype := mimetype.Detect(data)
	if len(p.accept) > 0 && !accepts(mtype, p.accept) {
		return nil, "", domain.ValidationErrors{field: p.reject}
	}
	return data, mtype.String(), nil
}

func accepts(mtype *mimetype.MIME, accept []string) bool {
	for _, a := range accept {
		if strings.HasSuffix(a, "/") {
			if strings.HasPrefix(mtype.String(), a) {
				return true
			}
			continue
		}
		if mtype.Is(a) {
			return true
		}
	}
	return false
}
