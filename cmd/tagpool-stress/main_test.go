package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ydb-platform/ydb-go-tagpool/internal/version"
	"github.com/ydb-platform/ydb-go-tagpool/log"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

func executeCLI(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestVersion(t *testing.T) {
	stdout, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.FullVersion+"\n", stdout)
}

func TestRun(t *testing.T) {
	stdout, err := executeCLI(t, "run",
		"--workers", "4",
		"--duration", "200ms",
		"--max", "2",
		"--tags", "L=FR,L=DE",
		"--match-any",
		"--fail-rate", "0.1",
		"--drop-rate", "0.1",
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "acquired: ")
	assert.Contains(t, stdout, "reconcile calls: ")
	assert.Contains(t, stdout, "sessions alive: 0")
}

func TestRunInvalid(t *testing.T) {
	_, err := executeCLI(t, "run", "--duration", "10ms", "--max", "0", "--log-level", "error")
	require.Error(t, err)

	_, err = executeCLI(t, "run", "--tags", "broken", "--log-level", "error")
	require.Error(t, err)

	_, err = executeCLI(t, "run", "--log-level", "verbose")
	require.Error(t, err)
}

func TestRunConfigFromEnv(t *testing.T) {
	t.Setenv("TAGPOOL_WORKERS", "3")
	t.Setenv("TAGPOOL_FIXUP_DELAY", "5ms")

	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--max", "7", "--tags", "L=FR"}))
	cfg, err := readRunConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.workers)
	assert.Equal(t, 7, cfg.max)
	assert.Equal(t, 5*time.Millisecond, cfg.fixupDelay)
	assert.Equal(t, []tag.Tag{"L=FR"}, cfg.tags)
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newLogger(zap.New(core))

	ctx := log.WithNames(context.Background(), "ydb", "tagpool", "acquire")
	l.Log(log.WithLevel(ctx, log.WARN), "failed",
		log.String("requested", "L=FR"),
		log.Int("attempts", 2),
		log.Duration("latency", time.Second),
		log.Error(errors.New("queue timeout")),
	)
	l.Log(log.WithLevel(ctx, log.QUIET), "ignored")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "ydb.tagpool.acquire", entries[0].LoggerName)
	assert.Equal(t, "failed", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "L=FR", fields["requested"])
	assert.Equal(t, int64(2), fields["attempts"])
	assert.Equal(t, "queue timeout", fields["error"])
}
