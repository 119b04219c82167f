// ABOUTME: Resource DTOs passed through from the backend API
// ABOUTME: Users, projects and voice personas with display labels for status enums

package models

import (
	"encoding/json"
	"time"
)

// UserPlan is the subscription tier of a user.
type UserPlan string

const (
	PlanFree  UserPlan = "free"
	PlanPro   UserPlan = "pro"
	PlanAdmin UserPlan = "admin"
)

// User is the backend's user representation.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	Plan         UserPlan  `json:"plan"`
	UsageSeconds int       `json:"usage_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProjectStatus tracks a project through the processing pipeline.
type ProjectStatus string

const (
	ProjectCreated          ProjectStatus = "created"
	ProjectUploading        ProjectStatus = "uploading"
	ProjectProcessingStems  ProjectStatus = "processing_stems"
	ProjectStemsReady       ProjectStatus = "stems_ready"
	ProjectGeneratingVocals ProjectStatus = "generating_vocals"
	ProjectVocalsReady      ProjectStatus = "vocals_ready"
	ProjectMixing           ProjectStatus = "mixing"
	ProjectCompleted        ProjectStatus = "completed"
	ProjectFailed           ProjectStatus = "failed"
)

var projectStatusLabels = map[ProjectStatus]string{
	ProjectCreated:          "Created",
	ProjectUploading:        "Uploading",
	ProjectProcessingStems:  "Processing Stems",
	ProjectStemsReady:       "Stems Ready",
	ProjectGeneratingVocals: "Generating Vocals",
	ProjectVocalsReady:      "Vocals Ready",
	ProjectMixing:           "Mixing",
	ProjectCompleted:        "Completed",
	ProjectFailed:           "Failed",
}

// Label returns the display text, or the raw value for unknown statuses.
func (s ProjectStatus) Label() string {
	if l, ok := projectStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Tone groups statuses into badge colours for display.
func (s ProjectStatus) Tone() string {
	switch s {
	case ProjectStemsReady, ProjectVocalsReady, ProjectCompleted:
		return "success"
	case ProjectProcessingStems, ProjectGeneratingVocals, ProjectMixing, ProjectUploading:
		return "progress"
	case ProjectFailed:
		return "danger"
	default:
		return "neutral"
	}
}

// VocalMode selects what happens to the original vocal stem.
type VocalMode string

const (
	VocalRemove  VocalMode = "remove"
	VocalReplace VocalMode = "replace"
	VocalBlend   VocalMode = "blend"
)

// Label returns the display text for a vocal mode.
func (m VocalMode) Label() string {
	switch m {
	case VocalRemove:
		return "Remove vocals"
	case VocalReplace:
		return "Replace vocals"
	case VocalBlend:
		return "Blend vocals"
	default:
		return string(m)
	}
}

// Project is the backend's project representation.
type Project struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	Status          ProjectStatus   `json:"status"`
	VocalMode       VocalMode       `json:"vocal_mode"`
	DurationSeconds *float64        `json:"duration_seconds"`
	MixSettings     json.RawMessage `json:"mix_settings,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	VoicePersonaID *string   `json:"voice_persona_id,omitempty"`
	VocalMode      VocalMode `json:"vocal_mode,omitempty"`
}

// ProjectUpdate is the partial payload for updating a project.
type ProjectUpdate struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	VoicePersonaID *string         `json:"voice_persona_id,omitempty"`
	VocalMode      *VocalMode      `json:"vocal_mode,omitempty"`
	MixSettings    json.RawMessage `json:"mix_settings,omitempty"`
}

// UploadResponse is returned after an audio upload.
type UploadResponse struct {
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// PersonaStatus tracks voice model training.
type PersonaStatus string

const (
	PersonaPending  PersonaStatus = "pending"
	PersonaTraining PersonaStatus = "training"
	PersonaReady    PersonaStatus = "ready"
	PersonaFailed   PersonaStatus = "failed"
)

var personaStatusLabels = map[PersonaStatus]string{
	PersonaPending:  "Pending",
	PersonaTraining: "Training",
	PersonaReady:    "Ready",
	PersonaFailed:   "Failed",
}

// Label returns the display text, or the raw value for unknown statuses.
func (s PersonaStatus) Label() string {
	if l, ok := personaStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Tone groups statuses into badge colours for display.
func (s PersonaStatus) Tone() string {
	switch s {
	case PersonaReady:
		return "success"
	case PersonaTraining:
		return "progress"
	case PersonaFailed:
		return "danger"
	default:
		return "neutral"
	}
}

// VoicePersona is the backend's voice persona representation.
type VoicePersona struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      PersonaStatus `json:"status"`
	SamplePaths []string      `json:"sample_paths,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// VoicePersonaCreate is the payload for creating a voice persona.
type VoicePersonaCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
