package internal

import (
	"context"

	"github.com/sirupsen/logrus"
)

// NewCaptionerFromConfig builds the model, translator and loader once for the process.
func NewCaptionerFromConfig(ctx context.Context, c *AppConfig, log *logrus.Logger, opts ...CaptionerOption) (*Captioner, error) {
	model, err := NewCaptionModel(ctx, c.Model)
	if err != nil {
		return nil, err
	}
	log.WithField("model", model.Name()).Info("Loaded model")

	translator, err := NewTranslator(ctx, c.Translation)
	if err != nil {
		return nil, err
	}
	log.WithField("translator", translator.Name()).Info("Loaded translator")

	opts = append([]CaptionerOption{WithTimeout(c.API.CaptionTimeout)}, opts...)
	return NewCaptioner(NewImageLoader(c.Images), model, translator, c.Translation, log, opts...), nil
}
