// Package planner turns free-text day plans into structured tasks using a
// chat-completion model.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// DefaultTimePreference is used when the model does not extract a time
const DefaultTimePreference = "any"

// TaskTypes are the categories the planner may assign
var TaskTypes = []string{
	"Exercise", "Deep Work", "Shallow Work", "Chore",
	"Creative", "Learning", "Connection", "Relaxation",
}

var (
	// ErrNotConfigured is returned when no model credentials are configured
	ErrNotConfigured = errors.New("planning assistant is not configured")
	// ErrInvalidPlan is returned when the model response cannot be used
	ErrInvalidPlan = errors.New("planning assistant returned an invalid plan")
)

// Request is the input to a planning call
type Request struct {
	UserInput  string
	CoreValues []string
	FreeSlots  []models.FreeSlot
}

// Plan is the structured result of a planning call
type Plan struct {
	Tasks []models.PlannedTask `json:"tasks"`
}

// Planner generates a structured plan
type Planner interface {
	GeneratePlan(ctx context.Context, req Request) (*Plan, error)
}

// Audio is an uploaded voice note
type Audio struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// Transcriber turns a voice note into text for the planner
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Disabled is the Planner used when no model is configured
type Disabled struct{}

var (
	_ Planner     = Disabled{}
	_ Transcriber = Disabled{}
)

// GeneratePlan always fails with ErrNotConfigured
func (Disabled) GeneratePlan(context.Context, Request) (*Plan, error) {
	return nil, ErrNotConfigured
}

// Transcribe always fails with ErrNotConfigured
func (Disabled) Transcribe(context.Context, Audio) (string, error) {
	return "", ErrNotConfigured
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant for the Praxable app, which helps people plan their day in alignment with their core values.\n")
	b.WriteString("Convert the user's natural language description of their plans into structured tasks.\n\n")

	fmt.Fprintf(&b, "The user's core values are: %s.\n\n", strings.Join(req.CoreValues, ", "))

	if len(req.FreeSlots) > 0 {
		b.WriteString("The user is free during these windows today:\n")
		for _, s := range req.FreeSlots {
			fmt.Fprintf(&b, "- %s to %s (%d minutes)\n",
				s.Start.Format(models.ClockLayout), s.End.Format(models.ClockLayout), s.DurationMinutes)
		}
		b.WriteString("Prefer time preferences that fall inside these windows.\n\n")
	} else {
		b.WriteString("The user has no free windows left today.\n\n")
	}

	b.WriteString("For each distinct activity, extract:\n")
	b.WriteString(`- "task_name": a clear, concise name for the activity` + "\n")
	fmt.Fprintf(&b, `- "task_type": one of %s`+"\n", quoteAll(TaskTypes))
	fmt.Fprintf(&b, `- "time_preference": any mention of time such as morning, afternoon, evening or a specific time; use %q if none`+"\n", DefaultTimePreference)
	b.WriteString(`- "aligned_value": the most relevant of the user's core values` + "\n\n")

	fmt.Fprintf(&b, "User input:\n%q\n\n", req.UserInput)
	b.WriteString(`Respond with a JSON object with a single key "tasks" holding the list of task objects. No other text.`)
	return b.String()
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
