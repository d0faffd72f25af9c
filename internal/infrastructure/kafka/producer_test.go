package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/proto"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	errs     []error
	attempts int
	written  []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.attempts++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	return &Producer{
		writer: w,
		logger: logger.NewNop(),
		cfg:    &cfg.KafkaCfg{Topic: "euclides.call-results", Brokers: []string{"localhost:9092"}},
	}
}

func testReport() *domain.RunReport {
	report := domain.NewRunReport(time.Now())
	id := domain.ImageID(42)
	report.Results = []domain.CallResult{
		domain.NewSuccess(domain.CallAddImage, &domain.AddImageReply{}).WithImage(&id, "cat.jpg"),
		domain.NewFailure(domain.CallFindSimilarByImage, e.Wrap("find", e.ErrServiceRejected)).WithImage(nil, "cat.jpg"),
	}
	return report
}

func TestProducer_PublishReport(t *testing.T) {
	w := &fakeWriter{}
	report := testReport()

	require.NoError(t, newTestProducer(w).PublishReport(context.Background(), report))
	require.Len(t, w.written, 2)

	for i, msg := range w.written {
		assert.Equal(t, report.RunID, string(msg.Key))

		event, err := proto.UnmarshalCallResultEvent(msg.Value)
		require.NoError(t, err)
		assert.Equal(t, report.RunID, event.RunId)
		assert.Equal(t, int32(i), event.Seq)
		assert.NotEmpty(t, event.EventId)
	}

	first, _ := proto.UnmarshalCallResultEvent(w.written[0].Value)
	assert.True(t, first.Success)
	assert.True(t, first.HasImageId)
	assert.Equal(t, int32(42), first.ImageId)

	second, _ := proto.UnmarshalCallResultEvent(w.written[1].Value)
	assert.False(t, second.Success)
	assert.False(t, second.HasImageId)
	assert.Equal(t, "ServiceRejected", second.ErrorKind)
	assert.Equal(t, "FindSimilarByImage", second.Call)
}

func TestProducer_PublishReportRetries(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("kafka: broker not available"), nil}}

	require.NoError(t, newTestProducer(w).PublishReport(context.Background(), testReport()))
	assert.Equal(t, 2, w.attempts)
	assert.Len(t, w.written, 2)
}

func TestProducer_PublishReportPermanentFailure(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("message too large")}}

	err := newTestProducer(w).PublishReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Equal(t, 1, w.attempts)
}

func TestProducer_EmptyReport(t *testing.T) {
	w := &fakeWriter{}

	require.NoError(t, newTestProducer(w).PublishReport(context.Background(), domain.NewRunReport(time.Now())))
	assert.Zero(t, w.attempts)
}

func TestNewProducer_NoBrokers(t *testing.T) {
	_, err := NewProducer(logger.NewNop(), &cfg.KafkaCfg{Topic: "t"})
	assert.ErrorIs(t, err, e.ErrInvalidConfig)
}
