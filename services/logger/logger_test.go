package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
)

func testConfig(level string) *core.Config {
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		Log:      core.LogConfig{Level: level, Format: "json"},
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		line := make(map[string]interface{})
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func TestLogger_Fields(t *testing.T) {
	buf := new(bytes.Buffer)
	l := New(buf, "web", testConfig("debug"))

	acc := account.Account{ID: 7, Matricule: "24G007"}
	l.Error("saving grade", errors.New("boom"), map[string]interface{}{"grade_id": 3}, acc)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "saving grade", line["message"])
	assert.Equal(t, "web", line["component"])
	assert.Equal(t, "boom", line["error"])
	assert.EqualValues(t, 3, line["grade_id"])
	assert.EqualValues(t, 7, line["account_id"])
	assert.Equal(t, "24G007", line["matricule"])
}

func TestLogger_Level(t *testing.T) {
	buf := new(bytes.Buffer)
	l := New(buf, "web", testConfig("warn"))

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestLogger_Fatal(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = osExit }()

	buf := new(bytes.Buffer)
	l := New(buf, "admin", testConfig(""))
	l.Fatal("cannot open database")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "fatal", lines[0]["level"])
	assert.Equal(t, 1, code)
}
