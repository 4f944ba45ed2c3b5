// Package mocks provides hand-written fakes of external clients for testing.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// =============================================================================
// S3 PutObject fake
// =============================================================================

// S3Object is one recorded upload
type S3Object struct {
	Bucket      string
	Key         string
	ContentType string
	Body        []byte
}

// MockS3Client records PutObject calls. Set Err to make every call fail.
type MockS3Client struct {
	Err error

	mu      sync.Mutex
	Objects []S3Object
}

// PutObject implements the S3 PutObject operation
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	var body []byte
	if params.Body != nil {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects = append(m.Objects, S3Object{
		Bucket:      aws.ToString(params.Bucket),
		Key:         aws.ToString(params.Key),
		ContentType: aws.ToString(params.ContentType),
		Body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}
