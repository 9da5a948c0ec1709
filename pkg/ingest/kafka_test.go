package ingest_test

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/ingest"
	"github.com/papercomputeco/spool/pkg/logger"
)

// fakeReader replays a fixed set of messages, then blocks until ctx is done.
type fakeReader struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		return msg, nil
	}
	if f.err != nil {
		return kafka.Message{}, f.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Kafka", func() {
	It("requires brokers and a topic", func() {
		_, err := ingest.NewKafka(&ingest.KafkaConfig{Topic: "spool"})
		Expect(err).To(MatchError(ingest.ErrNoBrokers))

		_, err = ingest.NewKafka(&ingest.KafkaConfig{Brokers: []string{"localhost:9092"}})
		Expect(err).To(MatchError(ingest.ErrNoTopic))
	})

	It("routes messages by channel header", func() {
		reader := &fakeReader{messages: []kafka.Message{
			{Value: []byte(`{"type":"Started","span_id":"a"}`)},
			{
				Value:   []byte(`{"type":"Started","span_id":"b"}`),
				Headers: []kafka.Header{{Key: ingest.ChannelHeader, Value: []byte("debug")}},
			},
			{Value: []byte(`garbage`)},
			{Value: []byte(`{"channel":"conversation","event":{"type":"Finished","span_id":"c"}}`)},
		}}
		rec := &recorder{}
		src := ingest.NewKafkaFromReader(reader, "trace", logger.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- src.Run(ctx, rec) }()

		Eventually(rec.all).Should(HaveLen(3))
		cancel()
		Eventually(done).Should(Receive(BeNil()))

		events := rec.all()
		Expect(events[0].Channel).To(Equal("trace"))
		Expect(events[1].Channel).To(Equal("debug"))
		Expect(events[2].Channel).To(Equal("conversation"))

		Expect(src.Close()).To(Succeed())
		Expect(reader.closed).To(BeTrue())
	})

	It("returns reader failures", func() {
		boom := errors.New("broker gone")
		src := ingest.NewKafkaFromReader(&fakeReader{err: boom}, "trace", logger.Nop())
		Expect(src.Run(context.Background(), &recorder{})).To(MatchError(boom))
	})
})
