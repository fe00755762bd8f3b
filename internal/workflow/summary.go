package workflow

import (
	"context"

	"nodues/internal/clearance"
)

// Summary is the per-application progress view used by CLI output.
type Summary struct {
	Application clearance.Application
	Stages      []clearance.Stage
	Approved    int
	Total       int
	// CurrentDepartment is the department whose decision is awaited, empty
	// when the application is terminal.
	CurrentDepartment string
}

// Summarize builds the progress summary for one application.
func (c *Coordinator) Summarize(ctx context.Context, applicationID string) (*Summary, error) {
	app, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	stages, err := c.store.GetStages(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Application: *app,
		Stages:      stages,
		Total:       len(stages),
	}
	for _, stage := range stages {
		if stage.State == clearance.StageApproved {
			summary.Approved++
		}
	}
	if !app.Status.Terminal() {
		if next, ok := clearance.FirstPending(stages); ok {
			summary.CurrentDepartment = next.Department
		}
	}
	return summary, nil
}
