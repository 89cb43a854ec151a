package intake

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mikeboe/sensight/pkg/export"
)

func TestExtractPlain(t *testing.T) {
	text, err := Extract("notes.MD", []byte("  我们做的是人造血管  \n"))
	require.NoError(t, err)
	assert.Equal(t, "我们做的是人造血管", text)

	text, err = Extract("bad.txt", []byte{'o', 'k', 0xff})
	require.NoError(t, err)
	assert.Equal(t, "ok�", text)
}

func TestExtractDOCX(t *testing.T) {
	data, err := export.DOCX("## Team\n- **CEO**: 10 years & counting\nPlain line")
	require.NoError(t, err)

	text, err := Extract("plan.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Team\nCEO: 10 years & counting\nPlain line", text)
}

func TestExtractPPTX(t *testing.T) {
	md := "# Deck\n"
	for _, s := range []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten"} {
		md += "## " + s + "\n- point " + s + "\n"
	}
	data, err := export.PPTX(md, export.Options{})
	require.NoError(t, err)

	text, err := Extract("deck.pptx", data)
	require.NoError(t, err)
	// slide10 must follow slide9, not slide1
	assert.Contains(t, text, "Nine\npoint Nine\n\nTen\npoint Ten")
	assert.True(t, len(text) > 0 && text[:4] == "Deck")
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Year", "Revenue"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"2025", "1.2M"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := Extract("model.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Year\tRevenue\n2025\t1.2M", text)
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract("image.png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Extract("big.txt", bytes.Repeat([]byte("a"), MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Extract("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)

	_, err = Extract("broken.docx", []byte("not a zip"))
	assert.Error(t, err)
}
