// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"resume-smart-go/internal/config"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 是单个任务的最大处理次数，达到后提交 offset 放弃重试。
const maxAttempts = 3

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestTask) error
	// Abandon 在任务达到最大重试次数、offset 即将提交时调用，用于清理暂存数据。
	Abandon(ctx context.Context, task tasks.IngestTask)
}

// AttemptCounter 记录任务失败次数。
type AttemptCounter interface {
	Incr(ctx context.Context, taskKey string) (int64, error)
	Reset(ctx context.Context, taskKey string) error
}

// Producer 发送异步入库任务。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers(cfg)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
	log.Info("Kafka 生产者初始化成功")
	return p
}

// ProduceIngestTask 发送一个入库任务到 Kafka，以 document_id 作为消息 key。
func (p *Producer) ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.DocumentID),
		Value: taskBytes,
	})
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

func brokers(cfg config.KafkaConfig) []string {
	return strings.Split(cfg.Brokers, ",")
}

// messageReader 抽象了 kafka.Reader 中消费者循环用到的方法。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StartConsumer 启动一个 Kafka 消费者来处理入库任务，ctx 取消时退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, attempts AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, processor, attempts)
}

func consume(ctx context.Context, r messageReader, processor TaskProcessor, attempts AttemptCounter) {
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者收到退出信号")
			} else {
				log.Error("从 Kafka 读取消息失败", err)
			}
			return
		}
		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.IngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(ctx, r, m)
			continue
		}

		if !handle(ctx, r, m, task, processor, attempts) {
			// offset 提交是按分区累积的，继续消费会越过这条未提交的消息
			log.Warnf("Kafka 消费者停止，未提交的消息将在重启后重新投递: document_id=%s, offset=%d", task.DocumentID, m.Offset)
			return
		}
	}
}

// handle 处理单条任务。失败时原地重试，累计次数记录在 Redis 中，
// 进程重启后重新投递的消息会沿用之前的计数。
// 返回 false 表示消息未提交，调用方必须停止消费。
func handle(ctx context.Context, r messageReader, m kafka.Message, task tasks.IngestTask, processor TaskProcessor, attempts AttemptCounter) bool {
	for {
		err := processor.Process(ctx, task)
		switch {
		case err == nil:
			log.Infof("入库任务处理成功: document_id=%s", task.DocumentID)
			_ = attempts.Reset(ctx, task.DocumentID)
			commit(ctx, r, m)
			return true
		case errors.Is(err, tasks.ErrPermanent):
			log.Errorf("入库任务无法处理，提交 offset 放弃重试: document_id=%s, error: %v", task.DocumentID, err)
			_ = attempts.Reset(ctx, task.DocumentID)
			commit(ctx, r, m)
			return true
		}

		log.Errorf("处理入库任务失败: document_id=%s, error: %v", task.DocumentID, err)
		if ctx.Err() != nil {
			return false
		}
		n, incErr := attempts.Incr(ctx, task.DocumentID)
		if incErr != nil {
			log.Errorf("记录任务失败次数失败: document_id=%s, error: %v", task.DocumentID, incErr)
			return false
		}
		if n >= maxAttempts {
			log.Errorf("入库任务多次失败(>=%d)，提交 offset 终止重试: document_id=%s", maxAttempts, task.DocumentID)
			processor.Abandon(ctx, task)
			_ = attempts.Reset(ctx, task.DocumentID)
			commit(ctx, r, m)
			return true
		}
	}
}

func commit(ctx context.Context, r messageReader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
