package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/question"
	"github.com/opencog/question2atomese/pkg/store/memory"
	"github.com/opencog/question2atomese/pkg/translate"
)

type published struct {
	key string
	msg amqp091.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error { f.acks++; return nil }
func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}
func (f *fakeAck) Reject(tag uint64, requeue bool) error { return nil }

func newClient(t *testing.T) *translate.Client {
	t.Helper()
	c, err := translate.NewClient(translate.NewClientParams{})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestProcessTranslateMessage(t *testing.T) {
	s := memory.New()
	body, _ := json.Marshal(question.Parsed{ID: "q1", QuestionID: 3, Question: "Is the car red?", Relex: "_predadj(car, red)\nTRUTH-QUERY-FLAG(car, T)"})

	tr, err := ProcessTranslateMessage(context.Background(), newClient(t), s, body)
	if err != nil {
		t.Fatalf("ProcessTranslateMessage() error: %v", err)
	}
	if tr.Type != "yes/no" {
		t.Fatalf("Type = %q", tr.Type)
	}
	if _, err := s.GetTranslation(context.Background(), "q1"); err != nil {
		t.Fatalf("translation not stored: %v", err)
	}

	_, err = ProcessTranslateMessage(context.Background(), newClient(t), s, []byte("{"))
	if !util.IsPermanent(err) {
		t.Fatalf("expected permanent decode error, got %v", err)
	}
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name        string
		headers     amqp091.Table
		err         error
		wantQueue   string
		wantRetries any
	}{
		{"first failure", nil, errors.New("db down"), "translate_queue_retry", int32(1)},
		{"retry again", amqp091.Table{"x-retries": int32(4)}, errors.New("db down"), "translate_queue_retry", int32(5)},
		{"retries exhausted", amqp091.Table{"x-retries": int32(MaxRetries)}, errors.New("db down"), "translate_queue_dlq", int32(MaxRetries)},
		{"permanent", nil, util.Permanent(errors.New("bad relex")), "translate_queue_dlq", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			ack := &fakeAck{}
			msg := amqp091.Delivery{Acknowledger: ack, Headers: tt.headers, Body: []byte("{}")}

			HandleProcessingError(context.Background(), pub, msg, TranslateQueue, tt.err)

			if len(pub.sent) != 1 || pub.sent[0].key != tt.wantQueue {
				t.Fatalf("published to %+v, want %s", pub.sent, tt.wantQueue)
			}
			if got := pub.sent[0].msg.Headers["x-retries"]; got != tt.wantRetries {
				t.Fatalf("x-retries = %v, want %v", got, tt.wantRetries)
			}
			if ack.acks != 1 || ack.nacks != 0 {
				t.Fatalf("acks=%d nacks=%d", ack.acks, ack.nacks)
			}
		})
	}
}

func TestHandleProcessingErrorPublishFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	ack := &fakeAck{}
	msg := amqp091.Delivery{Acknowledger: ack}

	HandleProcessingError(context.Background(), pub, msg, TranslateQueue, errors.New("db down"))
	if ack.nacks != 1 || !ack.requeue || ack.acks != 0 {
		t.Fatalf("expected requeue nack, got acks=%d nacks=%d requeue=%v", ack.acks, ack.nacks, ack.requeue)
	}
}

func TestHandleDelivery(t *testing.T) {
	pub := &fakePublisher{}
	ack := &fakeAck{}
	handleDelivery(context.Background(), pub, amqp091.Delivery{Acknowledger: ack}, TranslateQueue, func(ctx context.Context, body []byte) error {
		return nil
	})
	if ack.acks != 1 || len(pub.sent) != 0 {
		t.Fatalf("successful delivery should be acked only")
	}
}

func TestPublishQuestion(t *testing.T) {
	pub := &fakePublisher{}
	p := question.Parsed{QuestionID: 1, Question: "q", Relex: "_subj(a, b)"}
	if err := PublishQuestion(context.Background(), pub, p); err != nil {
		t.Fatalf("PublishQuestion() error: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].key != TranslateQueue {
		t.Fatalf("unexpected publish: %+v", pub.sent)
	}
	var got question.Parsed
	if err := json.Unmarshal(pub.sent[0].msg.Body, &got); err != nil || got != p {
		t.Fatalf("body = %s, %v", pub.sent[0].msg.Body, err)
	}
}
