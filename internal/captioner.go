package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Captioner runs one caption request: load the image, caption it, translate the captions.
// It holds the process-wide model and translator and is safe for concurrent use as long as
// they are.
type Captioner struct {
	loader     *ImageLoader
	model      CaptionModel
	translator Translator
	config     TranslationConfig
	timeout    time.Duration
	publisher  EventPublisher
	log        *logrus.Logger
}

type CaptionerOption func(*Captioner)

// WithTimeout bounds every Caption call. Zero means no limit.
func WithTimeout(timeout time.Duration) CaptionerOption {
	return func(c *Captioner) { c.timeout = timeout }
}

// WithPublisher publishes an event for every successful caption.
func WithPublisher(publisher EventPublisher) CaptionerOption {
	return func(c *Captioner) { c.publisher = publisher }
}

func NewCaptioner(loader *ImageLoader, model CaptionModel, translator Translator, config TranslationConfig, log *logrus.Logger, opts ...CaptionerOption) *Captioner {
	c := &Captioner{
		loader:     loader,
		model:      model,
		translator: translator,
		config:     config,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Captioner) Model() CaptionModel {
	return c.model
}

func (c *Captioner) Translator() Translator {
	return c.translator
}

func (c *Captioner) Caption(ctx context.Context, file string) (*CaptionResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	img, err := c.loader.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"file":   file,
		"format": img.Format,
		"width":  img.Width,
		"height": img.Height,
	}).Debug("Loaded image")

	captions, err := c.model.Caption(ctx, img)
	if err != nil {
		return nil, AsError(err)
	}
	c.log.WithField("file", file).WithField("captions", captions).Info("Captioned image")

	translations, err := c.translate(ctx, captions)
	if err != nil {
		return nil, AsError(err)
	}

	result := &CaptionResult{
		SourceLang:   c.config.Source,
		TargetLang:   c.config.Target,
		Captions:     captions,
		Translations: translations,
	}
	c.publish(file, result)
	return result, nil
}

// translate returns one translation per caption. In "first" mode every entry is the
// translation of the first caption, which is what older clients were built against.
func (c *Captioner) translate(ctx context.Context, captions []string) ([]string, error) {
	translations := make([]string, len(captions))
	if len(captions) == 0 {
		return translations, nil
	}

	if c.config.Mode == "first" {
		t, err := c.translator.Translate(ctx, captions[0], c.config.Source, c.config.Target)
		if err != nil {
			return nil, err
		}
		for i := range translations {
			translations[i] = t.TranslatedText
		}
		return translations, nil
	}

	done := make(map[string]string, len(captions))
	for i, caption := range captions {
		if translated, ok := done[caption]; ok {
			translations[i] = translated
			continue
		}
		t, err := c.translator.Translate(ctx, caption, c.config.Source, c.config.Target)
		if err != nil {
			return nil, err
		}
		done[caption] = t.TranslatedText
		translations[i] = t.TranslatedText
	}
	return translations, nil
}

func (c *Captioner) publish(file string, result *CaptionResult) {
	if c.publisher == nil {
		return
	}

	event := &CaptionEvent{
		Id:     uuid.NewString(),
		File:   file,
		Result: result,
		Ts:     time.Now().UTC(),
	}
	if err := c.publisher.SendCaptionEvent(event); err != nil {
		c.log.WithError(err).WithField("file", file).Error("Failed to publish caption event")
	}
}
