package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/giftledger/internal/export"
	"github.com/dukerupert/giftledger/internal/model"
)

const backupJSON = `{
  "version": "1.0.0",
  "timestamp": "2024-05-20T10:00:00Z",
  "events": [{"id": "e1", "name": "张三婚礼", "theme": "festive"}],
  "gifts": {"e1": [
    {"id": "g1", "eventId": "e1", "name": "李四", "amount": 500, "type": "cash", "timestamp": "2024-05-20T10:01:00Z"},
    {"id": "g2", "eventId": "e1", "name": "王五", "amount": 300, "type": "wechat", "timestamp": "2024-05-20T10:02:00Z", "abolished": true}
  ]}
}`

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = t.TempDir()
	dbPath = filepath.Join(dir, "ledger.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup.json"), []byte(backupJSON), 0o644))
	return dir, dbPath
}

func TestImportAndStats(t *testing.T) {
	dir, dbPath := setup(t)

	out, err := run(t, dbPath, "import", filepath.Join(dir, "backup.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "新增 1 个事件，2 条礼金记录，跳过 0 条重复记录")

	out, err = run(t, dbPath, "import", filepath.Join(dir, "backup.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "跳过 3 条重复记录")

	out, err = run(t, dbPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "事件数: 1")
	assert.Contains(t, out, "礼金记录: 2 (有效 1)")
	assert.Contains(t, out, "总金额: 500.00 (伍佰元整)")
}

func TestImportRejectsNonJSONFile(t *testing.T) {
	dir, dbPath := setup(t)
	txt := filepath.Join(dir, "backup.txt")
	require.NoError(t, os.WriteFile(txt, []byte(backupJSON), 0o644))

	_, err := run(t, dbPath, "import", txt)
	assert.Error(t, err)
}

func TestImportMalformed(t *testing.T) {
	dir, dbPath := setup(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":`), 0o644))

	_, err := run(t, dbPath, "import", bad)
	assert.ErrorIs(t, err, model.ErrFormat)
}

func TestExportJSON(t *testing.T) {
	dir, dbPath := setup(t)
	_, err := run(t, dbPath, "export", "json", "-o", filepath.Join(dir, "empty.json"))
	assert.ErrorIs(t, err, model.ErrEmptyResult)

	_, err = run(t, dbPath, "import", filepath.Join(dir, "backup.json"))
	require.NoError(t, err)

	out, err := run(t, dbPath, "export", "json", "--event", "e1", "-o", "-")
	require.NoError(t, err)
	var doc model.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Gifts["e1"], 1, "abolished gift is not exported")
	assert.Equal(t, "g1", doc.Gifts["e1"][0].ID)

	target := filepath.Join(dir, "all.json")
	_, err = run(t, dbPath, "export", "json", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)

	_, err = run(t, dbPath, "export", "json", "--event", "missing", "-o", "-")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExportXLSX(t *testing.T) {
	dir, dbPath := setup(t)
	_, err := run(t, dbPath, "import", filepath.Join(dir, "backup.json"))
	require.NoError(t, err)

	_, err = run(t, dbPath, "export", "xlsx")
	assert.Error(t, err, "--event is required")

	target := filepath.Join(dir, "gifts.xlsx")
	_, err = run(t, dbPath, "export", "xlsx", "--event", "e1", "-o", target)
	require.NoError(t, err)

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.DetailSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "李四", rows[1][1])
}

func TestPushURL(t *testing.T) {
	assert.Equal(t, "ws://192.168.1.5:8080/ws", pushURL("http://192.168.1.5:8080/"))
	assert.Equal(t, "wss://gifts.example.com/ws", pushURL("https://gifts.example.com"))
}
