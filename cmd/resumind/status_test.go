package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resumind/resumind/internal/db"
)

func TestFormatStepStatus(t *testing.T) {
	evt := &db.Event{
		EventName: db.EventPipelineStep,
		Status:    strRef(db.EventSucceeded),
		Message:   strRef("profile persisted"),
	}

	line := formatStepStatus(db.StepCompanyDiscovery, evt)
	assert.Contains(t, line, "company_discovery")
	assert.Contains(t, line, "pipeline.step")
	assert.Contains(t, line, "succeeded")
	assert.Contains(t, line, "profile persisted")
}

func TestFormatStepStatus_NotStarted(t *testing.T) {
	line := formatStepStatus(db.StepResearch, nil)
	assert.Contains(t, line, "research")
	assert.Contains(t, line, "not started")
}

func TestStatusSteps_InPipelineOrder(t *testing.T) {
	assert.Equal(t, []string{
		db.StepCompanyDiscovery,
		db.StepResearchPlanning,
		db.StepResearch,
		db.StepResumeGeneration,
		db.StepCoverLetterGeneration,
	}, statusSteps)
}
