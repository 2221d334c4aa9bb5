// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
// 摄取批次的原始负载在进入 Kafka 之前会先归档到对象存储，
// 消费端按对象名取回，避免把大负载塞进消息队列。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"journal-assist-go/internal/config"
	"journal-assist-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PayloadArchive 抽象了摄取负载的归档读写，便于测试替身注入。
type PayloadArchive interface {
	Put(ctx context.Context, objectName string, payload []byte) error
	Get(ctx context.Context, objectName string) ([]byte, error)
}

// minioArchive 是 PayloadArchive 的 MinIO 实现。
type minioArchive struct {
	client     *minio.Client
	bucketName string
}

// NewMinioArchive 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinioArchive(cfg config.MinIOConfig) (PayloadArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	// 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
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
	}

	log.Info("MinIO 客户端初始化成功")
	return &minioArchive{client: client, bucketName: cfg.BucketName}, nil
}

// Put 将负载写入存储桶。
func (a *minioArchive) Put(ctx context.Context, objectName string, payload []byte) error {
	_, err := a.client.PutObject(ctx, a.bucketName, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("写入对象 '%s' 失败: %w", objectName, err)
	}
	return nil
}

// Get 从存储桶读取完整负载。
func (a *minioArchive) Get(ctx context.Context, objectName string) ([]byte, error) {
	object, err := a.client.GetObject(ctx, a.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取对象 '%s' 失败: %w", objectName, err)
	}
	defer object.Close()

	payload, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("读取对象 '%s' 内容失败: %w", objectName, err)
	}
	return payload, nil
}
