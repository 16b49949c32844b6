package kafka

import (
	"context"
	"fmt"

	"github.com/VaibhavChidrawar/thumbnail-api/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

type JobConsumer struct {
	*consumer.Consumer
}

func NewJobConsumer(consumer *consumer.Consumer) *JobConsumer {
	return &JobConsumer{consumer}
}

func (jc *JobConsumer) ReadJob(ctx context.Context) (kafka.Message, error) {
	msg, err := jc.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("JobConsumer - ReadJob - jc.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (jc *JobConsumer) CommitJob(ctx context.Context, msg kafka.Message) error {
	err := jc.Reader.CommitMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("JobConsumer - CommitJob - jc.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (jc *JobConsumer) Close() error {
	err := jc.Consumer.Close()
	if err != nil {
		return fmt.Errorf("JobConsumer - Close: %w", err)
	}

	return nil
}
