package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusValid(t *testing.T) {
	for _, status := range []JobStatus{
		JobStatusCreated, JobStatusPending, JobStatusAssigned, JobStatusStarted,
		JobStatusCompleted, JobStatusCancelled, JobStatusWithdrawn,
		JobStatusNotCarriedOut, JobStatusExpired,
	} {
		assert.True(t, status.Valid(), "status %s should be valid", status)
	}

	assert.False(t, JobStatus("").Valid())
	assert.False(t, JobStatus("done").Valid())
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{
		JobStatusCompleted, JobStatusCancelled, JobStatusWithdrawn,
		JobStatusNotCarriedOut, JobStatusExpired,
	}
	for _, status := range terminal {
		assert.True(t, status.Terminal(), "status %s should be terminal", status)
	}

	active := []JobStatus{JobStatusCreated, JobStatusPending, JobStatusAssigned, JobStatusStarted}
	for _, status := range active {
		assert.False(t, status.Terminal(), "status %s should not be terminal", status)
	}
}

func TestCreateJobRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := &CreateJobRequest{CustomerID: "cust-1", LanguagePair: "de-ar"}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing customer", func(t *testing.T) {
		req := &CreateJobRequest{LanguagePair: "de-ar"}
		assert.Error(t, req.Validate())
	})

	t.Run("whitespace language pair", func(t *testing.T) {
		req := &CreateJobRequest{CustomerID: "cust-1", LanguagePair: "   "}
		assert.Error(t, req.Validate())
	})
}

func TestUpdateJobRequestEmpty(t *testing.T) {
	assert.True(t, (&UpdateJobRequest{}).Empty())

	pair := "de-ti"
	assert.False(t, (&UpdateJobRequest{LanguagePair: &pair}).Empty())

	remarks := ""
	assert.False(t, (&UpdateJobRequest{Remarks: &remarks}).Empty())
}
