package internal

import (
	"context"
	"fmt"
)

// Translation is one translated caption.
type Translation struct {
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
}

// Translator converts text between languages.
type Translator interface {
	Name() string

	// Translate converts a single text to the target language.
	Translate(ctx context.Context, text string, sourceLang, targetLang string) (Translation, error)

	Health(ctx context.Context) error
}

func NewTranslator(ctx context.Context, c TranslationConfig) (Translator, error) {
	switch c.Backend {
	case "google":
		return NewGoogleTranslator(ctx, c.APIKey)
	case "stub":
		return NewStubTranslator(nil), nil
	default:
		return nil, fmt.Errorf("unknown translation backend %q", c.Backend)
	}
}
