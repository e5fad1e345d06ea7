package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/charset"
	"bankrecon/internal/core"
	"bankrecon/internal/log"
)

const header = `"Számlaszám";"Számla neve";"Könyvelés dátuma";"Értéknap";"Partner számla";"Partner";"Összeg";"Deviza";"Közlemény";"Azonosító";"Típus kód";"Típus"`

func line(bankID, partner, amount, notice string) string {
	return strings.Join([]string{
		`"11773016-11111111"`, `"Acme Kft"`, `"2025-01-03T10:15:30+01:00[Europe/Budapest]"`, `"2025-01-03"`,
		`"10700024-22222222"`, `"` + partner + `"`, `"` + amount + `"`, `"HUF"`, `"` + notice + `"`,
		`"` + bankID + `"`, `"T01"`, `"Átutalás"`,
	}, ";")
}

func TestParseSkipsHeaderAndBlankLines(t *testing.T) {
	input := strings.Join([]string{
		header,
		line("TX-1", "Partner Bt", "-1 234,50", "első"),
		"",
		header,
		line("TX-2", "Cleverant Kft", "99,00", "második  sor"),
		"",
	}, "\r\n")

	recs, err := Parse(strings.NewReader(input), ';')
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TX-1", recs[0].BankTransactionID)
	assert.Equal(t, "Átutalás", recs[0].TypeName)
	assert.Equal(t, "második sor", recs[1].Notice)
}

func TestParseReportsLineNumber(t *testing.T) {
	input := header + "\n" + line("TX-1", "P", "1,00", "n") + "\n" + `"broken;"line` + "\n"

	_, err := Parse(strings.NewReader(input), ';')
	require.ErrorIs(t, err, core.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 3")

	var le *LineError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Line)
}

func TestReadFileLogsRejectedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	writeLatin2(t, path, header, line("TX-1", "P", "1,00", "n"), "too;few;fields")

	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &buf})
	r, err := NewReader(Config{Dir: dir, Charset: "ISO-8859-2"}, logger)
	require.NoError(t, err)

	_, err = r.ReadFile(context.Background(), path)
	require.ErrorIs(t, err, core.ErrMalformedRecord)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Rejected bank file line", entry["msg"])
	assert.Equal(t, log.OpParse, entry[log.FieldOperation])
	assert.Equal(t, float64(3), entry[log.FieldLine])
	assert.Equal(t, path, entry[log.FieldFile])
}

func TestParseEmptyInput(t *testing.T) {
	recs, err := Parse(strings.NewReader(""), ';')
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func writeLatin2(t *testing.T, path string, lines ...string) {
	t.Helper()
	enc, err := charset.Lookup("ISO-8859-2")
	require.NoError(t, err)
	b, err := charset.Encode(strings.Join(lines, "\n")+"\n", enc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestReaderDecodesAndOrdersFiles(t *testing.T) {
	dir := t.TempDir()
	writeLatin2(t, filepath.Join(dir, "HISTORY_2025_02.csv"), header, line("TX-2", "Tóth Bence Dániel", "2,00", "február"))
	writeLatin2(t, filepath.Join(dir, "HISTORY_2025_01.csv"), header, line("TX-1", "Árvíztűrő Kft", "1,00", "január"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r, err := NewReader(Config{Dir: dir, Pattern: "HISTORY_*.csv", Charset: "ISO-8859-2"}, log.Discard())
	require.NoError(t, err)

	paths, err := r.Files()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "HISTORY_2025_01.csv", filepath.Base(paths[0]))

	files, err := r.ReadAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Árvíztűrő Kft", files[0].Records[0].Partner)
	assert.Equal(t, "Tóth Bence Dániel", files[1].Records[0].Partner)
	assert.Equal(t, "február", files[1].Records[0].Notice)
}

func TestReaderMissingDirectory(t *testing.T) {
	r, err := NewReader(Config{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	require.NoError(t, err)
	_, err = r.Files()
	assert.ErrorIs(t, err, core.ErrExternalIO)
}

func TestReaderFailsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	writeLatin2(t, filepath.Join(dir, "a.csv"), header, line("TX-1", "P", "1,00", "n"))
	writeLatin2(t, filepath.Join(dir, "b.csv"), header, "too;few;fields")

	r, err := NewReader(Config{Dir: dir, Charset: "ISO-8859-2"}, nil)
	require.NoError(t, err)
	paths, err := r.Files()
	require.NoError(t, err)

	_, err = r.ReadAll(context.Background(), paths)
	require.ErrorIs(t, err, core.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "b.csv")
}
