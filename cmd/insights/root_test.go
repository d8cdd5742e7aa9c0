package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaching-analytics/internal/application/insights"
	"kaching-analytics/internal/domain/metrics"
	"kaching-analytics/internal/infra/memory"
	"kaching-analytics/internal/infrastructure/config"
)

func seededOpener(t *testing.T) storeOpener {
	t.Helper()
	store := memory.NewStore()
	today := metrics.DateOnly(time.Now())
	var samples []metrics.MetricSample
	for i := 0; i < 30; i++ {
		v := 100.0
		if i >= 27 {
			v = 55
		}
		samples = append(samples, metrics.MetricSample{Date: today.AddDate(0, 0, i-29), Value: v})
	}
	require.NoError(t, store.UpsertSamples(context.Background(), "m1", metrics.MetricTransactions, samples))
	return func(context.Context, config.Config, zerolog.Logger) (insights.MetricHistoryProvider, func(), error) {
		return store, func() {}, nil
	}
}

func execute(t *testing.T, open storeOpener, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	root.SetArgs(append(args, "--config", cfgPath))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Briefing(t *testing.T) {
	out, err := execute(t, seededOpener(t), "briefing", "--merchant", "m1", "--period", "daily")
	require.NoError(t, err)

	var b struct {
		MerchantID string `json:"merchantId"`
		Alerts     []struct {
			Metric string `json:"metric"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "m1", b.MerchantID)
	require.Len(t, b.Alerts, 1)
	assert.Equal(t, "transactions", b.Alerts[0].Metric)
}

func TestCLI_Anomalies(t *testing.T) {
	out, err := execute(t, seededOpener(t), "anomalies", "--merchant", "m1")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.NotEmpty(t, list)
}

func TestCLI_Recommendations(t *testing.T) {
	out, err := execute(t, seededOpener(t), "recommendations", "--merchant", "m1")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.NotEmpty(t, list)
	assert.Equal(t, "high", list[0]["priority"])
}

func TestCLI_Errors(t *testing.T) {
	_, err := execute(t, seededOpener(t), "anomalies")
	assert.ErrorIs(t, err, insights.ErrMerchantRequired)

	_, err = execute(t, seededOpener(t), "briefing", "--merchant", "m1", "--period", "monthly")
	assert.Error(t, err)

	boom := errors.New("no route to host")
	failing := func(context.Context, config.Config, zerolog.Logger) (insights.MetricHistoryProvider, func(), error) {
		return nil, nil, boom
	}
	_, err = execute(t, failing, "anomalies", "--merchant", "m1")
	assert.ErrorIs(t, err, boom)
}
