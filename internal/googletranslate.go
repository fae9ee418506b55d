package internal

import (
	"context"
	"errors"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

// GoogleTranslator uses the Cloud Translation v2 API.
type GoogleTranslator struct {
	service *translate.Service
}

func NewGoogleTranslator(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleTranslator, error) {
	if apiKey == "" && len(opts) == 0 {
		return nil, errors.New("google translator: api key is not configured")
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	service, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleTranslator{service: service}, nil
}

func (g *GoogleTranslator) Name() string {
	return "google"
}

func (g *GoogleTranslator) Translate(ctx context.Context, text string, sourceLang, targetLang string) (Translation, error) {
	resp, err := g.service.Translations.List([]string{text}, targetLang).
		Source(sourceLang).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return Translation{}, UnavailableError(err, "translating to %s failed", targetLang)
	}
	if len(resp.Translations) == 0 {
		return Translation{}, InternalError(nil, "no translation returned for %q", text)
	}

	return Translation{
		SourceText:     text,
		TranslatedText: resp.Translations[0].TranslatedText,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}, nil
}

func (g *GoogleTranslator) Health(ctx context.Context) error {
	_, err := g.service.Languages.List().Context(ctx).Do()
	return err
}
