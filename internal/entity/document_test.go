package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsentry/constants"
)

func TestAnalysisResultJSON_ErrorIsNullNotDropped(t *testing.T) {
	res := AnalysisResult{
		Status:        constants.AnalysisCompleted,
		Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		DetectedItems: []DetectedItem{},
	}

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"error":null`)

	msg := "Error from Detection (400): bad request"
	res.Error = &msg
	raw, err = json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"error":"Error from Detection (400): bad request"`)
}
