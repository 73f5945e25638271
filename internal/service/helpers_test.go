package service

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

type upload struct {
	name    string
	content string
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// buildUploads encodes the files as a multipart body and parses them back into file headers.
func buildUploads(t *testing.T, uploads ...upload) []*multipart.FileHeader {
	t.Helper()
	if len(uploads) == 0 {
		return nil
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, item := range uploads {
		part, err := writer.CreateFormFile("documentos", item.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(item.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["documentos"]
}
