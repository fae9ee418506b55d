package internal

import (
	"encoding/json"
	"time"
)

type (
	CaptionRequest struct {
		File string `form:"file" json:"file"`
	}

	// CaptionResult holds the model captions and their translations in model order.
	CaptionResult struct {
		SourceLang   string
		TargetLang   string
		Captions     []string
		Translations []string
	}

	ErrorBody struct {
		Msg   string   `json:"msg"`
		Kind  string   `json:"kind"`
		Trace []string `json:"trace"`
	}

	ErrorResponse struct {
		Error ErrorBody `json:"error"`
	}

	// CaptionRequestEvent is read from the task topic by the worker.
	CaptionRequestEvent struct {
		Id   string `json:"id"`
		File string `json:"file"`
	}

	// CaptionEvent is published to the caption topic for every finished caption request.
	CaptionEvent struct {
		Id     string
		File   string
		Result *CaptionResult
		Error  *ErrorBody
		Ts     time.Time
	}

	BackendHealth struct {
		Name      string    `json:"name"`
		Healthy   bool      `json:"healthy"`
		Message   string    `json:"message,omitempty"`
		CheckedAt time.Time `json:"checked_at"`
	}
)

func (r *CaptionResult) captionsKey(lang string) string {
	return "captions_" + lang
}

func (r *CaptionResult) fields() map[string]any {
	captions := r.Captions
	if captions == nil {
		captions = []string{}
	}
	translations := r.Translations
	if translations == nil {
		translations = []string{}
	}
	return map[string]any{
		r.captionsKey(r.SourceLang): captions,
		r.captionsKey(r.TargetLang): translations,
	}
}

func (r *CaptionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields())
}

func (e *CaptionEvent) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		"id":   e.Id,
		"file": e.File,
		"ts":   e.Ts,
	}
	if e.Result != nil {
		for k, v := range e.Result.fields() {
			fields[k] = v
		}
	}
	if e.Error != nil {
		fields["error"] = e.Error
	}
	return json.Marshal(fields)
}
