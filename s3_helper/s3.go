package s3_helper

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Presigner turns stored object keys (profile and portfolio pictures) into
// time limited GET URLs.
type Presigner struct {
	client s3iface.S3API
	bucket string
	expiry time.Duration
}

// NewPresigner builds its own S3 client on sess. A non-empty endpoint (local
// S3 such as minio) only applies to this client and forces path style urls.
func NewPresigner(sess client.ConfigProvider, bucket, endpoint string, expiry time.Duration) *Presigner {
	s3Config := aws.NewConfig()
	if endpoint != "" {
		s3Config = s3Config.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	return &Presigner{
		client: s3.New(sess, s3Config),
		bucket: bucket,
		expiry: expiry,
	}
}

func (p *Presigner) PresignGet(key string) (string, error) {
	req, _ := p.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(p.expiry)
	if err != nil {
		return "", fmt.Errorf("error in Presign: %w", err)
	}
	return url, nil
}
