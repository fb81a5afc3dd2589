package testutil

import (
	"context"

	"github.com/flexprice/bigdata-platform/internal/types"
)

func SetupContext() context.Context {
	return types.SetRequestID(context.Background(), types.GenerateUUID())
}
