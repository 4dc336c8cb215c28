package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/terminal-bench/paymentsengine/internal/config"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func loadConfig(t *testing.T, environ map[string]string) config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

const sampleInput = "type, client, tx, amount\n" +
	"deposit, 1, 1, 1.0\n" +
	"deposit, 2, 2, 2.0\n" +
	"deposit, 1, 3, 2.0\n" +
	"withdrawal, 1, 4, 1.5\n" +
	"withdrawal, 2, 5, 3.0\n"

const sampleOutput = "client,available,held,total,locked\n" +
	"1,1.5000,0.0000,1.5000,false\n" +
	"2,2.0000,0.0000,2.0000,false\n"

func TestRun(t *testing.T) {
	for _, shards := range []string{"1", "4"} {
		t.Run("shards="+shards, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			core, logs := observer.New(zapcore.InfoLevel)
			cfg := loadConfig(t, map[string]string{"PAYMENTS_SHARDS": shards})

			code := run(context.Background(), []string{writeInput(t, sampleInput)}, cfg, zap.New(core), &stdout, &stderr)

			assert.Equal(t, exitOK, code)
			assert.Equal(t, sampleOutput, stdout.String())
			assert.Empty(t, stderr.String())

			summary := logs.FilterMessage("run completed").All()
			require.Len(t, summary, 1)
			fields := summary[0].ContextMap()
			assert.Equal(t, int64(2), fields["accounts"])
			assert.Equal(t, int64(1), fields["rejected"])
			assert.NotEmpty(t, fields["run_id"])
		})
	}
}

func TestRunUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"a.csv", "b.csv"}} {
		var stdout, stderr bytes.Buffer

		code := run(context.Background(), args, loadConfig(t, nil), zap.NewNop(), &stdout, &stderr)

		assert.Equal(t, exitUsage, code)
		assert.Contains(t, stderr.String(), "usage:")
		assert.Empty(t, stdout.String())
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		environ map[string]string
	}{
		{
			name:  "missing file",
			input: "",
		},
		{
			name:  "bad header",
			input: "kind,client,tx,amount\ndeposit,1,1,1.0\n",
		},
		{
			name:    "malformed record with abort policy",
			input:   "type,client,tx,amount\ndeposit,1,1,abc\n",
			environ: map[string]string{"PAYMENTS_MALFORMED_POLICY": "abort"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.csv")
			if tt.input != "" {
				path = writeInput(t, tt.input)
			}
			var stdout, stderr bytes.Buffer
			core, logs := observer.New(zapcore.ErrorLevel)

			code := run(context.Background(), []string{path}, loadConfig(t, tt.environ), zap.New(core), &stdout, &stderr)

			assert.Equal(t, exitError, code)
			assert.Empty(t, stdout.String())
			assert.Equal(t, 1, logs.FilterMessage("run failed").Len())
		})
	}
}

func TestRunSkipsMalformedRecords(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,1.0\n" +
		"refund,1,2,1.0\n" +
		"deposit,1,3,0.5\n"
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{writeInput(t, input)}, loadConfig(t, nil), zap.NewNop(), &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "client,available,held,total,locked\n1,1.5000,0.0000,1.5000,false\n", stdout.String())
}

func TestRunExportsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, map[string]string{"REDIS_ADDR": mr.Addr()})
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{writeInput(t, sampleInput)}, cfg, zap.NewNop(), &stdout, &stderr)

	require.Equal(t, exitOK, code)
	assert.Equal(t, sampleOutput, stdout.String())
	assert.Equal(t, "1.5000", mr.HGet("payments:account:1", "available"))
	assert.Equal(t, "2.0000", mr.HGet("payments:account:2", "total"))
}

func TestRunFailsOnUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{writeInput(t, sampleInput)},
		loadConfig(t, map[string]string{"REDIS_ADDR": addr}), zap.NewNop(), &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout.String())
}
