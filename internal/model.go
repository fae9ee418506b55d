package internal

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
)

// CaptionModel turns an image into candidate captions, best first.
type CaptionModel interface {
	Name() string
	Caption(ctx context.Context, img *Image) ([]string, error)
	Health(ctx context.Context) error
}

func NewCaptionModel(ctx context.Context, c ModelConfig) (CaptionModel, error) {
	switch c.Backend {
	case "huggingface":
		return NewHuggingFaceModel(c.Name, c.MaxLength, c.HuggingFace), nil
	case "llavacpp":
		return NewLlavaCppModel(c.MaxLength, c.LlavaCpp)
	case "rekognition":
		var opts []func(*awsconfig.LoadOptions) error
		if c.Rekognition.Region != "" {
			opts = append(opts, awsconfig.WithRegion(c.Rekognition.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return NewRekognitionModel(rekognition.NewFromConfig(awsCfg), c.Rekognition), nil
	case "stub":
		return NewStubModel(nil), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", c.Backend)
	}
}
