package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VaibhavChidrawar/thumbnail-api/pkg/kafka/producer"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type JobProducer struct {
	*producer.Producer
	topic string
}

func NewJobProducer(producer *producer.Producer, topic string) *JobProducer {
	return &JobProducer{
		producer,
		topic,
	}
}

func (jp *JobProducer) SendJob(ctx context.Context, jobID uuid.UUID, originalKey, contentType string) error {
	payload := JobPayload{
		JobID:       jobID,
		OriginalKey: originalKey,
		ContentType: contentType,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JobProducer - SendJob - json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Topic: jp.topic,
		Key:   []byte(jobID.String()),
		Value: value,
	}

	err = jp.Writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("JobProducer - SendJob - jp.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (jp *JobProducer) Close() error {
	err := jp.Producer.Close()
	if err != nil {
		return fmt.Errorf("JobProducer - Close: %w", err)
	}

	return nil
}
