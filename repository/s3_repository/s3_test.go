package s3_repository

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mohammad-safakhou/briefer/models"
)

type memObjects struct {
	objects map[string][]byte
	ctype   string
}

func (m *memObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	m.ctype = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestMirrorAndFetch(t *testing.T) {
	objs := &memObjects{objects: map[string][]byte{}}
	m := &S3Mirror{Client: objs, Bucket: "briefs", Prefix: "daily"}

	if err := m.Mirror(context.Background(), models.Briefing{ID: "abc", Prompt: "AI 논문"}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if _, ok := objs.objects["briefs/daily/summary_abc.json"]; !ok {
		t.Fatalf("object not stored, have %v", objs.objects)
	}
	if !strings.HasPrefix(objs.ctype, "application/json") {
		t.Fatalf("unexpected content type %q", objs.ctype)
	}
	raw, err := m.Fetch(context.Background(), "abc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(string(raw), "AI 논문") {
		t.Fatalf("unexpected body %s", raw)
	}
}
