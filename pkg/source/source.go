// Package source resolves network locations given on the command line.
// Plain paths are read from the local filesystem; s3://bucket/key URIs are
// fetched from S3 with the default AWS credential chain.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-combo/pkg/pajek"
)

// S3Scheme prefixes object locations.
const S3Scheme = "s3://"

// ErrInvalidLocation reports a malformed network location.
var ErrInvalidLocation = errors.New("invalid network location")

// ObjectGetter is the subset of the S3 client used to fetch networks.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads Pajek networks from local paths or S3.
type Loader struct {
	// Region overrides the region from the AWS environment when set.
	Region string
	// Client is used for S3 locations. When nil, one is created from the
	// default AWS configuration on first use.
	Client ObjectGetter
}

// IsS3 reports whether location names an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, S3Scheme)
}

// ParseS3 splits an s3://bucket/key location.
func ParseS3(location string) (bucket, key string, err error) {
	if !IsS3(location) {
		return "", "", fmt.Errorf("%w: %q is not an %s URI", ErrInvalidLocation, location, S3Scheme)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, S3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs both bucket and key", ErrInvalidLocation, location)
	}
	return bucket, key, nil
}

// Validate checks that location is usable without touching it.
func Validate(location string) error {
	if location == "" {
		return fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	if IsS3(location) {
		_, _, err := ParseS3(location)
		return err
	}
	return nil
}

// Load reads the network at location.
func (l *Loader) Load(ctx context.Context, location string) (*pajek.Network, error) {
	if err := Validate(location); err != nil {
		return nil, err
	}
	if !IsS3(location) {
		return pajek.ReadFile(location)
	}

	bucket, key, _ := ParseS3(location)
	client, err := l.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer out.Body.Close()

	if pajek.IsCompressed(key) {
		return pajek.ReadCompressed(out.Body)
	}
	return pajek.Read(out.Body)
}

func (l *Loader) client(ctx context.Context) (ObjectGetter, error) {
	if l.Client != nil {
		return l.Client, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if l.Region != "" {
		opts = append(opts, awsconfig.WithRegion(l.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	l.Client = s3.NewFromConfig(cfg)
	return l.Client, nil
}
