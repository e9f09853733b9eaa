package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIngestJob(t *testing.T) {
	valid := func() *IngestJob {
		return &IngestJob{ID: "job-1", FullQuery: "retrieval augmented generation", Status: IngestJobStatusPending}
	}

	assert.NoError(t, ValidateIngestJob(valid()))
	assert.Error(t, ValidateIngestJob(nil))

	j := valid()
	j.ID = ""
	assert.ErrorContains(t, ValidateIngestJob(j), "ID is required")

	j = valid()
	j.FullQuery = ""
	assert.ErrorContains(t, ValidateIngestJob(j), "FullQuery is required")

	j = valid()
	j.Status = "queued"
	assert.ErrorContains(t, ValidateIngestJob(j), "Status is invalid")

	j = valid()
	j.Retries = -1
	assert.ErrorContains(t, ValidateIngestJob(j), "cannot be negative")
}
