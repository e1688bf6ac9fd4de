package hooks

import (
	"testing"

	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/stretchr/testify/suite"
)

type EventStreamHookTestSuite struct {
	suite.Suite
	hook *EventStreamHook
}

func (s *EventStreamHookTestSuite) SetupTest() {
	s.hook = NewEventStreamHook()
}

func (s *EventStreamHookTestSuite) TestCanHandle() {
	s.True(s.hook.CanHandle(models.SwapKindNativeForToken))
	s.True(s.hook.CanHandle(models.SwapKindTokenForNative))
	s.True(s.hook.CanHandle(models.SwapKindTokenForToken))
}

func (s *EventStreamHookTestSuite) TestBroadcast() {
	first, closeFirst := s.hook.Subscribe()
	second, closeSecond := s.hook.Subscribe()
	defer closeSecond()
	s.Equal(2, s.hook.Subscribers())

	s.NoError(s.hook.OnSwapExecuted(models.SwapExecuted{EventID: "evt-1", Kind: models.SwapKindTokenForToken}))

	s.Equal("evt-1", (<-first).EventID)
	s.Equal("evt-1", (<-second).EventID)

	closeFirst()
	// closing twice is harmless
	closeFirst()
	s.Equal(1, s.hook.Subscribers())
	_, open := <-first
	s.False(open)

	s.NoError(s.hook.OnSwapExecuted(models.SwapExecuted{EventID: "evt-2"}))
	s.Equal("evt-2", (<-second).EventID)
}

func (s *EventStreamHookTestSuite) TestSlowSubscriberDoesNotBlock() {
	events, unsubscribe := s.hook.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		s.NoError(s.hook.OnSwapExecuted(models.SwapExecuted{EventID: "evt"}))
	}
	s.Len(events, subscriberBuffer)
}

func TestEventStreamHookTestSuite(t *testing.T) {
	suite.Run(t, new(EventStreamHookTestSuite))
}
