// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"resume-smart-go/internal/config"
	"resume-smart-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore 是异步入库暂存原始文件所需的最小能力集合。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	Get(ctx context.Context, objectName string) ([]byte, error)
	RemovePrefix(ctx context.Context, prefix string) error
}

// MinioStore 基于 MinIO 实现 ObjectStore。
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
	}
	return &MinioStore{client: client, bucket: cfg.BucketName}, nil
}

// Put 上传一个对象。
func (s *MinioStore) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Get 下载一个对象的完整内容。
func (s *MinioStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// RemovePrefix 删除指定前缀下的所有对象。
func (s *MinioStore) RemovePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for result := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			log.Errorf("删除 MinIO 对象失败, object: %s, error: %v", result.ObjectName, result.Err)
			return result.Err
		}
	}
	return nil
}

// UploadObjectName 返回异步上传时原始文件的存放路径。
func UploadObjectName(userID, documentID, fileName string) string {
	return UploadPrefix(userID, documentID) + fileName
}

// UploadPrefix 返回某个文档所有暂存对象的公共前缀。
func UploadPrefix(userID, documentID string) string {
	return fmt.Sprintf("uploads/%s/%s/", userID, documentID)
}
