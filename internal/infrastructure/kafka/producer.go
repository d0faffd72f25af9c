package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/proto"
	"github.com/perone/euclidesdb/internal/usecase"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/jitter"
	"github.com/perone/euclidesdb/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	publishAttempts = 3
	baseBackoff     = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

// messageWriter покрывает нужную продюсеру часть kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует результаты вызовов прогона как события CallResultEvent.
type Producer struct {
	writer messageWriter
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: no kafka brokers", e.ErrInvalidConfig))
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// PublishReport отправляет по событию на каждый результат. Ключ сообщения: ID прогона,
// поэтому события одного прогона попадают в одну партицию и сохраняют порядок.
func (p *Producer) PublishReport(ctx context.Context, report *domain.RunReport) error {
	messages, err := p.GetMessages(usecase.NewReportInfo(report))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if len(messages) == 0 {
		return nil
	}

	for attempt := 0; ; attempt++ {
		err = p.writer.WriteMessages(ctx, messages...)
		if err == nil {
			p.logger.Debugf("published %d call result event(s) for run %s", len(messages), report.RunID)
			return nil
		}

		if !isRetryableError(err) || attempt == publishAttempts-1 {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		sleepTime := jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)
		p.logger.Warnf("Temporary Kafka failure, retrying in %v: %v", sleepTime, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return e.Wrap(whereami.WhereAmI(), ctx.Err())
		}
	}
}

// GetMessages строит сообщения Kafka из отчёта.
func (p *Producer) GetMessages(info *usecase.ReportInfo) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(info.Results))
	now := time.Now().UnixNano()

	for _, res := range info.Results {
		event := &proto.CallResultEvent{
			EventId:        uuid.NewString(),
			EventTimestamp: now,
			RunId:          info.RunID,
			Seq:            int32(res.Seq),
			Call:           res.Call,
			ImagePath:      res.ImagePath,
			Success:        res.Success,
			ErrorKind:      res.ErrorKind,
			Error:          res.Error,
			Summary:        res.Summary,
		}
		if res.ImageID != nil {
			event.ImageId = *res.ImageID
			event.HasImageId = true
		}

		value, err := event.Marshal()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(info.RunID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "call", Value: []byte(res.Call)},
			},
		})
	}

	return messages, nil
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
