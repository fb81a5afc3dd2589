package service

import (
	"strings"

	"github.com/flexprice/bigdata-platform/internal/types"
)

// stageTemplates hold the processing pipeline of every cloud.
// %engine% is replaced by the capitalised engine name.
var stageTemplates = map[types.CloudProvider][]string{
	types.CloudAWS: {
		"Ingesting data via Kinesis Streams",
		"Storing raw data in S3 buckets",
		"Lambda triggers EMR cluster start",
		"%engine% ETL processing on EMR",
		"Loading processed data to Redshift",
		"Running Athena queries for analytics",
		"Generating QuickSight reports",
	},
	types.CloudGCP: {
		"Streaming data via Pub/Sub",
		"Storing in Cloud Storage buckets",
		"Triggering Dataproc cluster",
		"%engine% processing on Dataproc",
		"Loading data to BigQuery",
		"Running BigQuery analytics",
		"Creating Data Studio reports",
	},
	types.CloudAzure: {
		"Event Hubs data ingestion",
		"Storing in Data Lake Storage",
		"Starting HDInsight cluster",
		"%engine% processing on HDInsight",
		"Loading to Synapse Analytics",
		"Running Synapse queries",
		"Power BI report generation",
	},
}

// ProcessingStages returns the ordered stage names of a job running on cloud with engine
func ProcessingStages(cloud types.CloudProvider, engine types.ProcessingEngine) ([]string, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}
	if err := engine.Validate(); err != nil {
		return nil, err
	}

	name := engine.String()
	name = strings.ToUpper(name[:1]) + name[1:]

	templates := stageTemplates[cloud]
	stages := make([]string, len(templates))
	for i, t := range templates {
		stages[i] = strings.ReplaceAll(t, "%engine%", name)
	}
	return stages, nil
}
