package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/perone/euclidesdb/pkg/e"
)

const objectScheme = "s3://"

// ImageRepo читает исходные изображения из MinIO по путям вида s3://bucket/key.
type ImageRepo struct {
	mc *minio.Client
}

func NewImageRepo(mc *minio.Client) *ImageRepo {
	return &ImageRepo{
		mc: mc,
	}
}

// Load возвращает содержимое объекта. Отсутствующий бакет или ключ даёт ErrResourceNotFound.
func (i *ImageRepo) Load(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := parseObjectPath(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := i.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), classify(path, err))
	}

	obj, err := i.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), classify(path, err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), classify(path, err))
	}

	return data, nil
}

// parseObjectPath разбирает s3://bucket/key.
func parseObjectPath(path string) (string, string, error) {
	rest, ok := strings.CutPrefix(path, objectScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %s: not an object path", e.ErrResourceNotFound, path)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s: want s3://bucket/key", e.ErrResourceNotFound, path)
	}

	return bucket, key, nil
}

func classify(path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchObject":
		return fmt.Errorf("%w: %s", e.ErrResourceNotFound, path)
	}

	return err
}
