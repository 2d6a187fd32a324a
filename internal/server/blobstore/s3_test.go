package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	data        []byte
	contentType string
	modTime     time.Time
}

type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string]fakeObject
	putErr    error
	headErr   error
	deleteErr error
	listErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, contentType: aws.ToString(in.ContentType), modTime: time.Now()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.data)), ContentType: aws.String(o.contentType)}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(f.objects[k].modTime)})
	}
	return out, nil
}

type fakePresigner struct {
	err error
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &v4.PresignedHTTPRequest{
		URL: "http://minio/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?ttl=" + opts.Expires.String(),
	}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, &fakePresigner{}, "studynest")
	assert.Equal(t, config.BlobBackendS3, s.Kind())

	h, err := s.Put(ctx, "Math 101", "notes.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.Key, "pages/Math%20101/"), h.Key)
	assert.True(t, strings.HasSuffix(h.Key, "_notes.pdf"))
	assert.Equal(t, "application/pdf", fake.objects[h.Key].contentType)

	data, ct, err := s.Get(ctx, *h)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)
	assert.Equal(t, "application/pdf", ct)

	url, err := s.PresignGet(ctx, *h, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://minio/studynest/"+h.Key+"?ttl=15m0s", url)

	require.NoError(t, s.Delete(ctx, *h))
	assert.Empty(t, fake.objects)

	assert.ErrorIs(t, s.Delete(ctx, *h), common.ErrorNotFound)
	_, _, err = s.Get(ctx, *h)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_LongNamesAreBounded(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, &fakePresigner{}, "b")

	h, err := s.Put(ctx, strings.Repeat("ф", 80), strings.Repeat("д", 50)+".pdf", []byte("pdf"), "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(h.Key), len(s3KeyPrefix)+2*maxSegmentLen+40)
	assert.Equal(t, "application/pdf", fake.objects[h.Key].contentType)
}

func TestS3Store_GetUsesObjectContentType(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, &fakePresigner{}, "b")

	h, err := s.Put(ctx, "P", "img.png", []byte{1}, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", fake.objects[h.Key].contentType)

	_, ct, err := s.Get(ctx, *h)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, &fakePresigner{err: errors.New("sign")}, "b")

	fake.putErr = errors.New("put failed")
	_, err := s.Put(ctx, "P", "a", []byte{1}, "")
	assert.ErrorContains(t, err, "put failed")
	fake.putErr = nil

	h, err := s.Put(ctx, "P", "a", []byte{1}, "")
	require.NoError(t, err)

	fake.headErr = errors.New("head failed")
	assert.ErrorContains(t, s.Delete(ctx, *h), "head failed")
	fake.headErr = nil

	fake.deleteErr = errors.New("delete failed")
	assert.ErrorContains(t, s.Delete(ctx, *h), "delete failed")

	fake.listErr = errors.New("list failed")
	_, err = s.List(ctx)
	assert.ErrorContains(t, err, "list failed")

	_, err = s.PresignGet(ctx, *h, time.Minute)
	assert.ErrorContains(t, err, "sign")
}

func TestS3Store_List(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, &fakePresigner{}, "b")

	h1, err := s.Put(ctx, "A", "1", []byte{1}, "")
	require.NoError(t, err)
	h2, err := s.Put(ctx, "B", "2", []byte{2}, "")
	require.NoError(t, err)
	fake.objects["other/x"] = fakeObject{}

	objs, err := s.List(ctx)
	require.NoError(t, err)
	var keys []string
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{h1.Key, h2.Key}, keys)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("x")))
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	s, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &InlineStore{}, s)

	cfg.BlobBackend = config.BlobBackendDisk
	cfg.BlobDir = t.TempDir()
	s, err = New(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, s)

	cfg.BlobBackend = "ftp"
	_, err = New(ctx, cfg)
	assert.ErrorContains(t, err, "unknown blob backend")
}

func TestNewS3Store(t *testing.T) {
	origLoad, origClient := loadDefaultAWSConfig, newS3ClientFromConfig
	defer func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origClient }()

	var gotOpts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "admin", creds.AccessKeyID)
		assert.Equal(t, "secretpassword", creds.SecretAccessKey)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return &s3.Client{}
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BlobBackend = config.BlobBackendS3

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(gotOpts.BaseEndpoint))
	assert.True(t, gotOpts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Store(context.Background(), cfg)
	assert.ErrorContains(t, err, "load-fail")
}
