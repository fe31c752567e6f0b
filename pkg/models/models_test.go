package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType_Valid(t *testing.T) {
	for _, jt := range JobTypes {
		assert.True(t, jt.Valid(), jt)
	}
	assert.False(t, JobType("viral_detection").Valid())
	assert.False(t, JobType("").Valid())
}

func TestJobType_RequiresMedia(t *testing.T) {
	assert.True(t, JobClipCutter.RequiresMedia())
	assert.True(t, JobDopamineStory.RequiresMedia())
	assert.False(t, JobAIScriptWriter.RequiresMedia())
}

func TestJobRequest_NullVideoID(t *testing.T) {
	b, err := json.Marshal(JobRequest{JobType: JobAIScriptWriter, Params: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, `{"job_type":"ai_script_writer","video_id":null,"params":{}}`, string(b))
}

func TestIsPresetCategory(t *testing.T) {
	assert.True(t, IsPresetCategory(DefaultUploadCategory))
	assert.True(t, IsPresetCategory("gaming"))
	assert.False(t, IsPresetCategory("Gaming"))
	assert.False(t, IsPresetCategory(""))
}

func TestAPIKey_HashNeverSerialized(t *testing.T) {
	b, err := json.Marshal(APIKey{KeyHash: "$2a$10$secret", KeyPrefix: "cf_abcde"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.Contains(t, string(b), "cf_abcde")
}
