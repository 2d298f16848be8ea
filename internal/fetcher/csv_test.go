package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func TestReadCSV_WithHeader(t *testing.T) {
	t.Parallel()

	in := "adm_cd,category,value\n11010100,tax,100.5\n11010200,tax,200\n"
	header, rows, err := ReadCSV(strings.NewReader(in), CSVOptions{HasHeader: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"adm_cd", "category", "value"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"11010100", "tax", "100.5"}, rows[0])
}

func TestReadCSV_NoHeader(t *testing.T) {
	t.Parallel()

	in := "a,b\nc,d\n"
	header, rows, err := ReadCSV(strings.NewReader(in), CSVOptions{})

	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Len(t, rows, 2)
}

func TestReadCSV_TrimSpaceAndDelimiter(t *testing.T) {
	t.Parallel()

	in := " a ; b \n c ;d\n"
	_, rows, err := ReadCSV(strings.NewReader(in), CSVOptions{Delimiter: ';', TrimSpace: true})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"c", "d"}, rows[1])
}

func TestReadCSV_EUCKR(t *testing.T) {
	t.Parallel()

	utf8In := "11010100,종로구,100\n"
	encoded, _, err := transform.String(korean.EUCKR.NewEncoder(), utf8In)
	require.NoError(t, err)

	_, rows, err := ReadCSV(strings.NewReader(encoded), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "종로구", rows[0][1])
}

func TestReadCSVFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,value\n11010,7\n"), 0o644))

	header, rows, err := ReadCSVFile(path, CSVOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "value"}, header)
	assert.Len(t, rows, 1)
}

func TestReadCSVFile_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	require.Error(t, err)
}

func TestDecodeKorean(t *testing.T) {
	t.Parallel()

	// UTF-8 passes through.
	out, err := DecodeKorean("서울특별시")
	require.NoError(t, err)
	assert.Equal(t, "서울특별시", out)

	// CP949 bytes get decoded.
	encoded, _, err := transform.String(korean.EUCKR.NewEncoder(), "부산광역시")
	require.NoError(t, err)
	out, err = DecodeKorean(encoded)
	require.NoError(t, err)
	assert.Equal(t, "부산광역시", out)
}
