package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	pages []string
	err   error
}

func (s stubExtractor) ExtractPages([]byte) ([]string, error) {
	return s.pages, s.err
}

func TestNormalize_DirectPaste(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"Photosynthesis is the process...",
		"  leading and trailing spaces are kept  ",
		"многоязычный текст 日本語",
		"line one\nline two",
	}

	for _, input := range inputs {
		got, err := n.Normalize(DirectPaste, &Payload{Text: input})
		require.NoError(t, err)
		assert.Equal(t, input, got)
	}
}

func TestNormalize_DirectPasteBlank(t *testing.T) {
	n := NewNormalizer()

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := n.Normalize(DirectPaste, &Payload{Text: input})
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.ErrorIs(t, err, ErrInput)
	}
}

func TestNormalize_MissingPayload(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Normalize(DirectPaste, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = n.Normalize(FileUpload, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = n.Normalize(FileUpload, &Payload{FileName: "notes.txt"})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = n.Normalize(FileUpload, &Payload{Body: strings.NewReader("text")})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestNormalize_TextFile(t *testing.T) {
	n := NewNormalizer()

	for _, text := range []string{"plain ascii", "café ☕ 日本", ""} {
		got, err := n.Normalize(FileUpload, &Payload{FileName: "notes.txt", Body: strings.NewReader(text)})
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}

	got, err := n.Normalize(FileUpload, &Payload{FileName: "NOTES.TXT", Body: strings.NewReader("upper")})
	require.NoError(t, err)
	assert.Equal(t, "upper", got)
}

func TestNormalize_TextFileInvalidUTF8(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Normalize(FileUpload, &Payload{
		FileName: "notes.txt",
		Body:     bytes.NewReader([]byte{'o', 'k', 0xff, 0xfe}),
	})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "byte 2")
}

func TestNormalize_UnsupportedFormat(t *testing.T) {
	n := NewNormalizer()

	for _, name := range []string{"notes.docx", "slides.pptx", "archive.zip", "README"} {
		_, err := n.Normalize(FileUpload, &Payload{FileName: name, Body: strings.NewReader("anything")})
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestNormalize_TooLarge(t *testing.T) {
	n := NewNormalizer(WithMaxUploadBytes(8))

	_, err := n.Normalize(FileUpload, &Payload{FileName: "notes.txt", Body: strings.NewReader("123456789")})
	assert.ErrorIs(t, err, ErrTooLarge)

	got, err := n.Normalize(FileUpload, &Payload{FileName: "notes.txt", Body: strings.NewReader("12345678")})
	require.NoError(t, err)
	assert.Equal(t, "12345678", got)
}

func TestNormalize_PDFPagesInOrder(t *testing.T) {
	n := NewNormalizer(WithPageExtractor(stubExtractor{pages: []string{"first", "", "third"}}))

	got, err := n.Normalize(FileUpload, &Payload{FileName: "book.pdf", Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nthird", got)
}

func TestNormalize_PDFExtractorFailure(t *testing.T) {
	n := NewNormalizer(WithPageExtractor(stubExtractor{err: errors.New("bad xref")}))

	_, err := n.Normalize(FileUpload, &Payload{FileName: "book.pdf", Body: strings.NewReader("junk")})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestPDFExtractor_RealDocument(t *testing.T) {
	pages, err := PDFExtractor{}.ExtractPages(buildPDF("Hello PDF"))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Hello PDF", pages[0])
	assert.Equal(t, "", pages[1], "page without a content stream contributes nothing")
}

func TestNormalize_PDFKeepsWordsAndLines(t *testing.T) {
	n := NewNormalizer()

	doc := buildPDF("Mitochondria produce ATP for the cell", "Ribosomes build proteins")
	got, err := n.Normalize(FileUpload, &Payload{FileName: "notes.pdf", Body: bytes.NewReader(doc)})
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria produce ATP for the cell\nRibosomes build proteins\n", got)
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	_, err := PDFExtractor{}.ExtractPages([]byte("definitely not a pdf document, just some text that is long enough to read the trailer"))
	assert.Error(t, err)
}

// buildPDF writes a two page document: the first page shows one line per
// argument, the second has no content. The font declares a 500 unit width for
// every printable character.
func buildPDF(lines ...string) []byte {
	ops := []string{"BT /F1 12 Tf 72 712 Td"}
	for i, line := range lines {
		if i > 0 {
			ops = append(ops, "0 -14 Td")
		}
		ops = append(ops, fmt.Sprintf("(%s) Tj", line))
	}
	ops = append(ops, "ET")
	stream := strings.Join(ops, " ")

	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 6 0 R >>",
		fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths),
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
