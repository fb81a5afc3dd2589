package service

import (
	"testing"

	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingStages(t *testing.T) {
	tests := []struct {
		name   string
		cloud  types.CloudProvider
		engine types.ProcessingEngine
		fourth string
	}{
		{"aws_spark", types.CloudAWS, types.EngineSpark, "Spark ETL processing on EMR"},
		{"gcp_hadoop", types.CloudGCP, types.EngineHadoop, "Hadoop processing on Dataproc"},
		{"azure_spark", types.CloudAzure, types.EngineSpark, "Spark processing on HDInsight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages, err := ProcessingStages(tt.cloud, tt.engine)
			require.NoError(t, err)
			assert.Len(t, stages, 7)
			assert.Equal(t, tt.fourth, stages[3])
		})
	}
}

func TestProcessingStagesDoesNotShareTemplates(t *testing.T) {
	stages, err := ProcessingStages(types.CloudAWS, types.EngineSpark)
	require.NoError(t, err)
	stages[0] = "changed"

	again, err := ProcessingStages(types.CloudAWS, types.EngineSpark)
	require.NoError(t, err)
	assert.Equal(t, "Ingesting data via Kinesis Streams", again[0])
}

func TestProcessingStagesRejectsUnknown(t *testing.T) {
	_, err := ProcessingStages("oracle", types.EngineSpark)
	assert.True(t, ierr.IsValidation(err))

	_, err = ProcessingStages(types.CloudAWS, "flink")
	assert.True(t, ierr.IsValidation(err))
}
