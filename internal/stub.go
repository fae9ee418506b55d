package internal

import (
	"context"
	"fmt"
	"sync/atomic"
)

// StubModel returns fixed captions. Useful without a model backend and in tests.
type StubModel struct {
	captions []string
	err      error
}

// NewStubModel returns a model answering with captions, or with a single caption describing
// the image when captions is nil.
func NewStubModel(captions []string) *StubModel {
	return &StubModel{captions: captions}
}

func NewFailingStubModel(err error) *StubModel {
	return &StubModel{err: err}
}

func (s *StubModel) Name() string {
	return "stub-model"
}

func (s *StubModel) Caption(ctx context.Context, img *Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.captions == nil {
		return []string{fmt.Sprintf("a %dx%d %s image", img.Width, img.Height, img.Format)}, nil
	}
	return append([]string(nil), s.captions...), nil
}

func (s *StubModel) Health(ctx context.Context) error {
	return s.err
}

// StubTranslator returns deterministic translations.
type StubTranslator struct {
	// dictionary maps [targetLang][sourceText] to the translated text.
	dictionary map[string]map[string]string
	err        error
	calls      atomic.Int64
}

// NewStubTranslator creates a translator using dictionary. Unknown texts come back prefixed
// with the target language: "[nl] text".
func NewStubTranslator(dictionary map[string]map[string]string) *StubTranslator {
	if dictionary == nil {
		dictionary = map[string]map[string]string{
			"nl": {
				"a man cleaning a rock in the forest": "een man die een rots schoonmaakt in het bos",
				"a dog sitting on a couch":            "een hond zittend op een bank",
			},
		}
	}
	return &StubTranslator{dictionary: dictionary}
}

func NewFailingStubTranslator(err error) *StubTranslator {
	return &StubTranslator{err: err}
}

func (s *StubTranslator) Name() string {
	return "stub-translator"
}

func (s *StubTranslator) Translate(ctx context.Context, text string, sourceLang, targetLang string) (Translation, error) {
	if err := ctx.Err(); err != nil {
		return Translation{}, err
	}
	s.calls.Add(1)
	if s.err != nil {
		return Translation{}, s.err
	}

	return Translation{
		SourceText:     text,
		TranslatedText: s.lookup(text, targetLang),
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}, nil
}

func (s *StubTranslator) lookup(text, targetLang string) string {
	if langDict, ok := s.dictionary[targetLang]; ok {
		if translated, ok := langDict[text]; ok {
			return translated
		}
	}
	return "[" + targetLang + "] " + text
}

// Calls returns how many times Translate was invoked.
func (s *StubTranslator) Calls() int {
	return int(s.calls.Load())
}

func (s *StubTranslator) Health(ctx context.Context) error {
	return s.err
}
