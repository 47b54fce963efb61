package planner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

func TestParsePlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantErr   bool
		wantTasks int
		validate  func(*testing.T, *Plan)
	}{
		{
			name:      "plain json",
			content:   `{"tasks":[{"task_name":"Go to the gym","task_type":"Exercise","time_preference":"afternoon","aligned_value":"Health"}]}`,
			wantTasks: 1,
			validate: func(t *testing.T, p *Plan) {
				want := models.PlannedTask{TaskName: "Go to the gym", TaskType: "Exercise", TimePreference: "afternoon", AlignedValue: "Health"}
				if p.Tasks[0] != want {
					t.Errorf("task = %+v, want %+v", p.Tasks[0], want)
				}
			},
		},
		{
			name:      "markdown fenced",
			content:   "```json\n{\"tasks\":[{\"task_name\":\"Write\",\"task_type\":\"Creative\",\"aligned_value\":\"Creativity\"}]}\n```",
			wantTasks: 1,
			validate: func(t *testing.T, p *Plan) {
				if p.Tasks[0].TimePreference != DefaultTimePreference {
					t.Errorf("time preference = %q, want %q", p.Tasks[0].TimePreference, DefaultTimePreference)
				}
			},
		},
		{
			name:      "surrounding prose",
			content:   `Here is your plan: {"tasks":[{"task_name":"Call mom","task_type":"Connection","time_preference":"evening","aligned_value":"Family"}]} Enjoy!`,
			wantTasks: 1,
		},
		{
			name:      "blank task names dropped",
			content:   `{"tasks":[{"task_name":"  "},{"task_name":" Read "}]}`,
			wantTasks: 1,
			validate: func(t *testing.T, p *Plan) {
				if p.Tasks[0].TaskName != "Read" {
					t.Errorf("task name = %q, want trimmed", p.Tasks[0].TaskName)
				}
			},
		},
		{name: "empty task list", content: `{"tasks":[]}`, wantTasks: 0},
		{name: "missing tasks key", content: `{"plan":[]}`, wantErr: true},
		{name: "not json", content: "I could not understand that", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan, err := parsePlan(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePlan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlan) {
					t.Errorf("expected ErrInvalidPlan, got %v", err)
				}
				return
			}
			if len(plan.Tasks) != tt.wantTasks {
				t.Fatalf("got %d tasks, want %d", len(plan.Tasks), tt.wantTasks)
			}
			if tt.validate != nil {
				tt.validate(t, plan)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	prompt := buildPrompt(Request{
		UserInput:  "gym after work, then call mom",
		CoreValues: []string{"Health", "Family"},
		FreeSlots: []models.FreeSlot{
			models.NewFreeSlot(day.Add(17*time.Hour), day.Add(18*time.Hour+30*time.Minute)),
		},
	})

	for _, want := range []string{
		"Health, Family",
		"17:00 to 18:30 (90 minutes)",
		"'Deep Work'",
		`"any"`,
		`"gym after work, then call mom"`,
		`"tasks"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	empty := buildPrompt(Request{UserInput: "nothing", CoreValues: []string{"Health"}})
	if !strings.Contains(empty, "no free windows") {
		t.Error("expected prompt to mention no free windows")
	}
}

func TestDisabled_GeneratePlan(t *testing.T) {
	t.Parallel()

	_, err := Disabled{}.GeneratePlan(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDisabled_Transcribe(t *testing.T) {
	t.Parallel()

	_, err := Disabled{}.Transcribe(context.Background(), Audio{Filename: "note.wav", Data: strings.NewReader("x")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOpenAIPlanner_Transcribe(t *testing.T) {
	t.Parallel()

	var gotPath, gotModel, gotFilename, gotAudio string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		gotModel = r.FormValue("model")
		if file, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
			data, _ := io.ReadAll(file)
			gotAudio = string(data)
			_ = file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  gym after work and call mom  "}`))
	}))
	defer srv.Close()

	p := NewOpenAIPlanner("sk-test", srv.URL, "", nil, true)
	text, err := p.Transcribe(context.Background(), Audio{
		Filename:    "note.wav",
		ContentType: "audio/wav",
		Data:        strings.NewReader("RIFF-audio"),
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "gym after work and call mom" {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotModel != DefaultTranscriptionModel {
		t.Errorf("model = %q", gotModel)
	}
	if gotFilename != "note.wav" || gotAudio != "RIFF-audio" {
		t.Errorf("file = %q (%q)", gotFilename, gotAudio)
	}
}

func TestOpenAIPlanner_Transcribe_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"unsupported format","type":"invalid_request_error","code":"invalid_file_format"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIPlanner("sk-test", srv.URL, "", nil, false)
	_, err := p.Transcribe(context.Background(), Audio{Filename: "note.txt", Data: strings.NewReader("x")})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "invalid_file_format" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIPlanner_GeneratePlan(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(
			"```json\n{\"tasks\":[{\"task_name\":\"Gym\",\"task_type\":\"Exercise\",\"time_preference\":\"evening\",\"aligned_value\":\"Health\"}]}\n```",
		))
	}))
	defer srv.Close()

	p := NewOpenAIPlanner("sk-test", srv.URL, "test-model", nil, true)
	plan, err := p.GeneratePlan(context.Background(), Request{UserInput: "gym tonight", CoreValues: []string{"Health"}})
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].TaskName != "Gym" {
		t.Fatalf("plan = %+v", plan)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"test-model"`) || !strings.Contains(gotBody, "json_object") {
		t.Errorf("request body missing model or response format: %s", gotBody)
	}
}

func TestOpenAIPlanner_GeneratePlan_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIPlanner("sk-wrong", srv.URL, "", nil, false)
	_, err := p.GeneratePlan(context.Background(), Request{UserInput: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Temporary() {
		t.Error("401 should not be temporary")
	}
}

func TestOpenAIPlanner_GeneratePlan_InvalidContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(`{"something":"else"}`))
	}))
	defer srv.Close()

	p := NewOpenAIPlanner("sk-test", srv.URL, "", nil, false)
	_, err := p.GeneratePlan(context.Background(), Request{UserInput: "x"})
	if !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestAPIError_Temporary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		if got := (&APIError{StatusCode: tt.status}).Temporary(); got != tt.want {
			t.Errorf("Temporary() for %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}
