package internal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type (
	huggingFaceParameters struct {
		MaxLength int `json:"max_length"`
	}

	huggingFaceRequest struct {
		Inputs     string                `json:"inputs"`
		Parameters huggingFaceParameters `json:"parameters"`
	}

	huggingFaceCaption struct {
		GeneratedText string `json:"generated_text"`
	}

	huggingFaceError struct {
		Error         string  `json:"error"`
		EstimatedTime float64 `json:"estimated_time"`
	}
)

// HuggingFaceModel calls an image-to-text inference endpoint that speaks the Hugging Face
// Inference API protocol.
type HuggingFaceModel struct {
	model     string
	maxLength int
	url       string
	token     string
	client    *http.Client
}

func NewHuggingFaceModel(model string, maxLength int, c HuggingFaceConfig) *HuggingFaceModel {
	return &HuggingFaceModel{
		model:     model,
		maxLength: maxLength,
		url:       strings.TrimRight(c.Endpoint, "/") + "/" + model,
		token:     c.Token,
		client:    &http.Client{Timeout: c.Timeout},
	}
}

func (m *HuggingFaceModel) Name() string {
	return "huggingface:" + m.model
}

func (m *HuggingFaceModel) Caption(ctx context.Context, img *Image) ([]string, error) {
	body, err := json.Marshal(huggingFaceRequest{
		Inputs:     base64.StdEncoding.EncodeToString(img.Data),
		Parameters: huggingFaceParameters{MaxLength: m.maxLength},
	})
	if err != nil {
		return nil, InternalError(err, "cannot encode inference request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, InternalError(err, "cannot build inference request")
	}
	req.Header.Set("Content-Type", "application/json")
	m.authorize(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, UnavailableError(err, "inference request to %s failed", m.model)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, UnavailableError(err, "cannot read inference response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, m.responseError(resp.StatusCode, payload)
	}

	var generated []huggingFaceCaption
	if err := json.Unmarshal(payload, &generated); err != nil {
		return nil, InternalError(err, "unexpected inference response: %s", string(payload))
	}

	captions := make([]string, 0, len(generated))
	for _, g := range generated {
		captions = append(captions, strings.TrimSpace(g.GeneratedText))
	}
	return captions, nil
}

func (m *HuggingFaceModel) responseError(status int, payload []byte) error {
	var e huggingFaceError
	msg := strings.TrimSpace(string(payload))
	if json.Unmarshal(payload, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	if status == http.StatusServiceUnavailable {
		if e.EstimatedTime > 0 {
			msg = fmt.Sprintf("%s (ready in ~%.0fs)", msg, e.EstimatedTime)
		}
		return UnavailableError(nil, "model %s unavailable: %s", m.model, msg)
	}
	return InternalError(nil, "model %s returned %d: %s", m.model, status, msg)
}

func (m *HuggingFaceModel) authorize(req *http.Request) {
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}
}

// Health reports an error when the endpoint is unreachable or answers with a server error.
// A model that is still loading counts as unhealthy.
func (m *HuggingFaceModel) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return err
	}
	m.authorize(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s answered %s", m.url, resp.Status)
	}
	return nil
}
