package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/internal/config"
	"github.com/sparkqual/sparkqual/pkg/store"
)

func TestSplitS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{uri: "s3://logs/prod/app-1", wantBucket: "logs", wantPrefix: "prod/app-1"},
		{uri: "s3://logs", wantBucket: "logs", wantPrefix: ""},
		{uri: "s3://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := splitS3URI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func TestExitError(t *testing.T) {
	base := errors.New("boom")
	err := exitError(foundry.ExitInvalidArgument, "Invalid input", base)

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "Invalid input")
	assert.Contains(t, err.Error(), fmt.Sprintf("exit code %d", foundry.ExitInvalidArgument))
}

func TestResolveSourcesNoInputs(t *testing.T) {
	cfg = &config.Config{}
	cfg.Source.Glob = "**/*"

	_, err := resolveSources(context.Background(), []string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No event logs found")
	assert.Contains(t, err.Error(), "exit code")
}

func TestProfileReportsIncludeProperties(t *testing.T) {
	var found bool
	for _, r := range profileReports {
		if r.name == "property_information" {
			found = true
		}
	}
	require.True(t, found)

	st := store.New(0, false)
	st.AddProperty(&store.Property{Source: store.SourceEngineConfig, Key: "spark.executor.memory", Value: "4g"})

	res := propertiesReport(st)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "spark.executor.memory", res.Rows[0][2])
}
