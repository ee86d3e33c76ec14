package camunda

import (
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain-copilot/internal/common/config"
)

func TestDecodeVariables(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Variables: `{"question":"OTD for Alpha?"}`}}

	var in struct {
		Question string `json:"question"`
	}
	require.NoError(t, DecodeVariables(job, &in))
	assert.Equal(t, "OTD for Alpha?", in.Question)

	bad := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 8, Variables: `{"question":`}}
	assert.Error(t, DecodeVariables(bad, &in))
}

func TestWorkerDefaults(t *testing.T) {
	assert.Equal(t, 5, maxJobsActive(config.WorkerConfig{}))
	assert.Equal(t, 3, maxJobsActive(config.WorkerConfig{MaxJobsActive: 3}))
	assert.Equal(t, 2*time.Minute, jobTimeout(config.WorkerConfig{}))
	assert.Equal(t, 45*time.Second, jobTimeout(config.WorkerConfig{Timeout: 45000}))
}
