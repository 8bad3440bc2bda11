package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	headers := []string{"Account", "Department"}
	rows := [][]string{{"u1", "Finance"}, {"u2", ""}}

	data, err := WriteWorkbook("Combined", headers, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Combined"}, f.GetSheetList())
	got, err := f.GetRows("Combined")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, []string{"u1", "Finance"}, got[1])
	assert.Equal(t, "u2", got[2][0])

	styleID, err := f.GetCellStyle("Combined", "B1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	data, err := WriteWorkbook("", nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Report"}, f.GetSheetList())
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3PublisherPublish(t *testing.T) {
	fake := &fakePutter{}
	p := newS3Publisher(fake, S3Config{Bucket: "reports-bucket", Prefix: "/readiness/"})

	key, err := p.Publish(context.Background(), "combined.xlsx", []byte("xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "readiness/combined.xlsx", key)
	assert.Equal(t, "reports-bucket", aws.ToString(fake.in.Bucket))
	assert.Equal(t, key, aws.ToString(fake.in.Key))
	assert.Equal(t, ContentType, aws.ToString(fake.in.ContentType))
	assert.Equal(t, []byte("xlsx"), fake.body)
}

func TestS3PublisherError(t *testing.T) {
	p := newS3Publisher(&fakePutter{err: errors.New("denied")}, S3Config{Bucket: "b"})
	_, err := p.Publish(context.Background(), "x.xlsx", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/x.xlsx")
}

func TestNewS3PublisherDisabled(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), S3Config{})
	assert.ErrorIs(t, err, ErrPublishDisabled)

	var p *S3Publisher
	_, err = p.Publish(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrPublishDisabled)
}

func TestS3ConfigFromEnv(t *testing.T) {
	t.Setenv("REPORT_S3_BUCKET", "bkt")
	t.Setenv("REPORT_S3_REGION", "")
	t.Setenv("REPORT_S3_PREFIX", "")
	t.Setenv("REPORT_S3_PATH_STYLE", "TRUE")

	cfg := S3ConfigFromEnv()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "reports", cfg.Prefix)
	assert.True(t, cfg.PathStyle)
}
