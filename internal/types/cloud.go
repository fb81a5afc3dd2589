package types

import (
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/samber/lo"
)

// CloudProvider is the cloud a processing pipeline runs on
type CloudProvider string

const (
	CloudAWS   CloudProvider = "aws"
	CloudGCP   CloudProvider = "gcp"
	CloudAzure CloudProvider = "azure"
)

func (c CloudProvider) String() string {
	return string(c)
}

func (c CloudProvider) Validate() error {
	allowed := []CloudProvider{
		CloudAWS,
		CloudGCP,
		CloudAzure,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid cloud provider").
			WithHintf("Cloud must be one of %v", allowed).
			WithReportableDetails(map[string]any{"cloud": c}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProcessingEngine is the batch engine a pipeline is executed with
type ProcessingEngine string

const (
	EngineSpark  ProcessingEngine = "spark"
	EngineHadoop ProcessingEngine = "hadoop"
)

func (e ProcessingEngine) String() string {
	return string(e)
}

func (e ProcessingEngine) Validate() error {
	allowed := []ProcessingEngine{
		EngineSpark,
		EngineHadoop,
	}
	if !lo.Contains(allowed, e) {
		return ierr.NewError("invalid processing engine").
			WithHintf("Engine must be one of %v", allowed).
			WithReportableDetails(map[string]any{"engine": e}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
