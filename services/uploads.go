package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

type putPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadURL is a short-lived URL the applicant PUTs a phase file to. Key is
// what the submission then references as its fileKey.
type UploadURL struct {
	URL       string      `json:"url"`
	Method    string      `json:"method"`
	Key       string      `json:"key"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Headers   http.Header `json:"headers,omitempty"`
}

// UploadSigner presigns S3 uploads under a submission's key prefix.
type UploadSigner struct {
	presigner putPresigner
	bucket    string
	ttl       time.Duration
	now       func() time.Time
}

// NewUploadSigner presigns against bucket with client. ttl defaults to 15 minutes.
func NewUploadSigner(client *s3.Client, bucket string, ttl time.Duration) (*UploadSigner, error) {
	return newUploadSigner(s3.NewPresignClient(client), bucket, ttl)
}

func newUploadSigner(p putPresigner, bucket string, ttl time.Duration) (*UploadSigner, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &UploadSigner{presigner: p, bucket: bucket, ttl: ttl, now: time.Now}, nil
}

// PresignSubmission returns a PUT URL for fileName under the prefix of
// (applicationID, phaseID).
func (u *UploadSigner) PresignSubmission(ctx context.Context, applicationID, phaseID uuid.UUID, fileName, contentType string) (*UploadURL, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, errs.NewValidationError("fileName", "a file name is required")
	}
	key := models.SubmissionKeyPrefix(applicationID, phaseID) + name

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := u.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(u.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: u.now().Add(u.ttl),
		Headers:   req.SignedHeader,
	}, nil
}
