package models

import (
	"encoding/json"
	"testing"
)

func TestProjectStatusLabel(t *testing.T) {
	tests := []struct {
		status ProjectStatus
		label  string
		tone   string
	}{
		{ProjectCreated, "Created", "neutral"},
		{ProjectUploading, "Uploading", "progress"},
		{ProjectProcessingStems, "Processing Stems", "progress"},
		{ProjectStemsReady, "Stems Ready", "success"},
		{ProjectGeneratingVocals, "Generating Vocals", "progress"},
		{ProjectVocalsReady, "Vocals Ready", "success"},
		{ProjectMixing, "Mixing", "progress"},
		{ProjectCompleted, "Completed", "success"},
		{ProjectFailed, "Failed", "danger"},
		{ProjectStatus("archived"), "archived", "neutral"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.status.Tone(); got != tt.tone {
				t.Errorf("Tone() = %q, want %q", got, tt.tone)
			}
		})
	}
}

func TestPersonaStatusLabel(t *testing.T) {
	tests := map[PersonaStatus]string{
		PersonaPending:          "Pending",
		PersonaTraining:         "Training",
		PersonaReady:            "Ready",
		PersonaFailed:           "Failed",
		PersonaStatus("queued"): "queued",
	}
	for status, want := range tests {
		if got := status.Label(); got != want {
			t.Errorf("%q.Label() = %q, want %q", status, got, want)
		}
	}
}

func TestProjectPageDecode(t *testing.T) {
	body := `{
		"items": [{
			"id": "p1", "name": "Song", "description": null,
			"status": "stems_ready", "vocal_mode": "replace",
			"duration_seconds": 182.5, "mix_settings": {"vocal_gain": 0.8},
			"created_at": "2025-01-02T03:04:05Z", "updated_at": "2025-01-02T03:04:05Z"
		}],
		"total": 41, "page": 3, "page_size": 20, "pages": 3
	}`

	var page Page[Project]
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}

	if page.Total != 41 || page.Page != 3 || page.PageSize != 20 || page.Pages != 3 {
		t.Errorf("Unexpected pagination: %+v", page)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(page.Items))
	}
	p := page.Items[0]
	if p.Status != ProjectStemsReady || p.VocalMode != VocalReplace {
		t.Errorf("Unexpected enums: %q %q", p.Status, p.VocalMode)
	}
	if p.Description != nil {
		t.Errorf("Expected nil description, got %q", *p.Description)
	}
	if p.DurationSeconds == nil || *p.DurationSeconds != 182.5 {
		t.Errorf("Unexpected duration: %v", p.DurationSeconds)
	}
	if string(p.MixSettings) != `{"vocal_gain": 0.8}` {
		t.Errorf("Mix settings not passed through verbatim: %s", p.MixSettings)
	}
}

func TestBackendFailureDetailOr(t *testing.T) {
	withDetail := &BackendFailure{Status: 409, Detail: "Email already registered", HasDetail: true}
	if got := withDetail.DetailOr("Registration failed"); got != "Email already registered" {
		t.Errorf("DetailOr() = %q", got)
	}

	structured := &BackendFailure{Status: 422}
	if got := structured.DetailOr("Registration failed"); got != "Registration failed" {
		t.Errorf("DetailOr() = %q", got)
	}
}
