package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type labelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
	DescribeProjects(ctx context.Context, params *rekognition.DescribeProjectsInput, optFns ...func(*rekognition.Options)) (*rekognition.DescribeProjectsOutput, error)
}

// RekognitionModel builds a caption out of the labels AWS Rekognition detects.
type RekognitionModel struct {
	client labelDetector
	config RekognitionConfig
}

func NewRekognitionModel(client labelDetector, c RekognitionConfig) *RekognitionModel {
	return &RekognitionModel{client: client, config: c}
}

func (m *RekognitionModel) Name() string {
	return "rekognition"
}

func (m *RekognitionModel) Caption(ctx context.Context, img *Image) ([]string, error) {
	if img.MIME != "image/jpeg" && img.MIME != "image/png" {
		return nil, InputError("rekognition only accepts jpeg and png, got %s", img.MIME)
	}

	out, err := m.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: img.Data},
		MaxLabels:     aws.Int32(m.config.MaxLabels),
		MinConfidence: aws.Float32(m.config.MinConfidence),
	})
	if err != nil {
		return nil, UnavailableError(err, "rekognition DetectLabels failed")
	}

	labels := make([]types.Label, 0, len(out.Labels))
	for _, label := range out.Labels {
		if label.Name != nil && *label.Name != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return []string{}, nil
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return aws.ToFloat32(labels[i].Confidence) > aws.ToFloat32(labels[j].Confidence)
	})

	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, strings.ToLower(*label.Name))
	}
	return []string{joinLabels(names)}, nil
}

func joinLabels(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

// Health makes the cheapest authenticated call available, so missing credentials or region
// show up here rather than on the first caption.
func (m *RekognitionModel) Health(ctx context.Context) error {
	_, err := m.client.DescribeProjects(ctx, &rekognition.DescribeProjectsInput{MaxResults: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("rekognition: %w", err)
	}
	return nil
}
