package collector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Send(ctx context.Context, rec *record.Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func TestPush_SetsDocID(t *testing.T) {
	s := new(MockSink)
	rec := record.New("twitter", record.TypeTweet, "hi")
	s.On("Send", mock.Anything, rec).Return("doc-1", nil)

	collector.Push(context.Background(), s, rec)
	assert.Equal(t, "doc-1", rec.BackendDocID)
	s.AssertExpectations(t)
}

func TestPush_FailureLeavesDocIDEmpty(t *testing.T) {
	s := new(MockSink)
	rec := record.New("twitter", record.TypeTweet, "hi")
	s.On("Send", mock.Anything, rec).Return("", errors.New("boom"))

	collector.Push(context.Background(), s, rec)
	assert.Empty(t, rec.BackendDocID)
}

func TestPush_NilSink(t *testing.T) {
	rec := record.New("twitter", record.TypeTweet, "hi")
	assert.NotPanics(t, func() { collector.Push(context.Background(), nil, rec) })
}
