package store

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"shelftalk/domain"
	"shelftalk/domain/event"
	"shelftalk/errors"
	"shelftalk/mocks"
	"shelftalk/wire"
)

func seedRooms() []domain.Room {
	return []domain.Room{
		{ID: 5, Name: "sci-fi", Kind: domain.RoomGroup},
		{ID: 7, Name: "poetry", Kind: domain.RoomChannel},
	}
}

func newMessage(id int64, roomID domain.RoomID, content string) event.NewMessage {
	return event.NewMessage{Message: domain.Message{
		ID:       id,
		RoomID:   roomID,
		SenderID: 9,
		Content:  content,
	}}
}

func unreadOf(t *testing.T, s *Store, roomID domain.RoomID) int {
	t.Helper()
	for _, room := range s.Rooms() {
		if room.ID == roomID {
			return room.UnreadCount
		}
	}
	t.Fatalf("room %d not found", roomID)
	return 0
}

func TestStore_NewMessageForCurrentRoomGoesToBuffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()
	history.EXPECT().RoomMessages(gomock.Any(), domain.RoomID(5), 50).Return(nil, nil).Times(1)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())
	s.SelectRoom(context.Background(), 5)
	s.Wait()

	s.HandleEvent(newMessage(1, 5, "hi"))

	messages := s.Messages()
	req.Len(messages, 1)
	req.Equal("hi", messages[0].Content)
	// The current room is implicitly read.
	req.Zero(unreadOf(t, s, 5))
}

func TestStore_NewMessageForOtherRoomIncrementsUnread(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()
	history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())
	s.SelectRoom(context.Background(), 7)
	s.Wait()

	s.HandleEvent(newMessage(1, 5, "hi"))

	req.Empty(s.Messages())
	req.Equal(1, unreadOf(t, s, 5))

	// Same message while no room is selected at all.
	s2 := New(slog.Default(), sender, history, 0)
	s2.SetRooms(seedRooms())
	s2.HandleEvent(newMessage(1, 5, "hi"))
	req.Empty(s2.Messages())
	req.Equal(1, unreadOf(t, s2, 5))
}

func TestStore_UnreadAccountingOverASequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()
	history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())
	s.SelectRoom(context.Background(), 5)
	s.Wait()

	for i := int64(1); i <= 3; i++ {
		s.HandleEvent(newMessage(i, 5, "current"))
		s.HandleEvent(newMessage(10+i, 7, "elsewhere"))
	}

	req.Zero(unreadOf(t, s, 5))
	req.Equal(3, unreadOf(t, s, 7))
	req.Len(s.Messages(), 3)
	for _, msg := range s.Messages() {
		req.Equal(domain.RoomID(5), msg.RoomID)
	}
}

func TestStore_MessageForUnknownRoomIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	req.NotPanics(func() {
		s.HandleEvent(newMessage(1, 99, "ghost"))
	})
	req.Empty(s.Messages())
	// No synthetic room appeared.
	req.Len(s.Rooms(), 2)
}

func TestStore_ReservedAndUnknownEventsAreNoOps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	before := s.Rooms()
	s.HandleEvent(event.UserTyping{RoomID: 5, UserID: 9, IsTyping: true})
	s.HandleEvent(event.PresenceUpdate{UserID: 9, Status: "online"})
	s.HandleEvent(event.Unknown{Type: "reaction_added"})

	req.Equal(before, s.Rooms())
	req.Empty(s.Messages())
}

func TestStore_SelectRoomResetsUnreadSynchronously(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()

	// The fetch blocks until released so the test observes state
	// strictly before the history resolves.
	release := make(chan struct{})
	history.EXPECT().
		RoomMessages(gomock.Any(), domain.RoomID(5), 50).
		DoAndReturn(func(context.Context, domain.RoomID, int) ([]domain.Message, error) {
			<-release
			return []domain.Message{{ID: 1, RoomID: 5, Content: "old"}}, nil
		}).
		Times(1)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())
	s.HandleEvent(newMessage(1, 5, "hi"))
	req.Equal(1, unreadOf(t, s, 5))

	s.SelectRoom(context.Background(), 5)

	// Unread reset and buffer swap happened before the fetch settled.
	req.Zero(unreadOf(t, s, 5))
	req.Empty(s.Messages())

	close(release)
	s.Wait()
	req.Len(s.Messages(), 1)
	req.Equal("old", s.Messages()[0].Content)
}

func TestStore_SelectRoomSendsJoinLeaveMarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	// First selection: no previous room, so no leave_room.
	sender.EXPECT().Send(wire.NewJoinRoom(5)).Return(nil).Times(1)
	sender.EXPECT().Send(wire.NewMarkRead(5)).Return(nil).Times(1)
	s.SelectRoom(context.Background(), 5)
	s.Wait()

	// Switching away leaves the previous room first.
	sender.EXPECT().Send(wire.NewLeaveRoom(5)).Return(nil).Times(1)
	sender.EXPECT().Send(wire.NewJoinRoom(7)).Return(nil).Times(1)
	sender.EXPECT().Send(wire.NewMarkRead(7)).Return(nil).Times(1)
	s.SelectRoom(context.Background(), 7)
	s.Wait()
}

func TestStore_LastSelectWinsOverStaleHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()

	slow := make(chan struct{})
	history.EXPECT().
		RoomMessages(gomock.Any(), domain.RoomID(5), 50).
		DoAndReturn(func(context.Context, domain.RoomID, int) ([]domain.Message, error) {
			<-slow
			return []domain.Message{{ID: 1, RoomID: 5, Content: "stale"}}, nil
		}).
		Times(1)
	history.EXPECT().
		RoomMessages(gomock.Any(), domain.RoomID(7), 50).
		Return([]domain.Message{{ID: 2, RoomID: 7, Content: "fresh"}}, nil).
		Times(1)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	s.SelectRoom(context.Background(), 5)
	s.SelectRoom(context.Background(), 7)

	// Let the newer fetch land, then release the stale one.
	req.Eventually(func() bool {
		messages := s.Messages()
		return len(messages) == 1 && messages[0].Content == "fresh"
	}, time.Second, 10*time.Millisecond)

	close(slow)
	s.Wait()

	messages := s.Messages()
	req.Len(messages, 1)
	req.Equal("fresh", messages[0].Content)
	req.Equal(domain.RoomID(7), s.CurrentRoomID())
}

func TestStore_SelectRoomTwiceIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()
	history.EXPECT().
		RoomMessages(gomock.Any(), domain.RoomID(5), 50).
		Return([]domain.Message{{ID: 1, RoomID: 5, Content: "history"}}, nil).
		Times(2)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	s.SelectRoom(context.Background(), 5)
	s.Wait()
	first := s.Messages()

	s.SelectRoom(context.Background(), 5)
	s.Wait()
	second := s.Messages()

	req.Equal(first, second)
	req.Equal(domain.RoomID(5), s.CurrentRoomID())
}

func TestStore_FailedHistoryFetchLeavesBufferAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	sender := mocks.NewMockEnvelopeSender(ctrl)
	history := mocks.NewMockHistoryFetcher(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(nil).AnyTimes()
	history.EXPECT().
		RoomMessages(gomock.Any(), domain.RoomID(5), 50).
		Return(nil, errors.ErrUnexpectedReply).
		Times(1)

	s := New(slog.Default(), sender, history, 0)
	s.SetRooms(seedRooms())

	s.SelectRoom(context.Background(), 5)
	s.Wait()

	// Messages arriving after the failed fetch still accumulate.
	s.HandleEvent(newMessage(1, 5, "live"))
	messages := s.Messages()
	req.Len(messages, 1)
	req.Equal("live", messages[0].Content)
}

func TestStore_SendMessage(t *testing.T) {
	t.Run("forwards trimmed content for the current room", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		sender := mocks.NewMockEnvelopeSender(ctrl)
		history := mocks.NewMockHistoryFetcher(ctrl)
		history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
		sender.EXPECT().Send(wire.NewJoinRoom(5)).Return(nil)
		sender.EXPECT().Send(wire.NewMarkRead(5)).Return(nil)
		sender.EXPECT().Send(wire.NewSendMessage(5, "hello")).Return(nil).Times(1)

		s := New(slog.Default(), sender, history, 0)
		s.SetRooms(seedRooms())
		s.SelectRoom(context.Background(), 5)
		s.Wait()

		req.NoError(s.SendMessage("  hello  "))
		// No optimistic append: the buffer waits for the server echo.
		req.Empty(s.Messages())
	})

	t.Run("is a no-op without a selected room", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		sender := mocks.NewMockEnvelopeSender(ctrl)
		history := mocks.NewMockHistoryFetcher(ctrl)
		sender.EXPECT().Send(gomock.Any()).Times(0)

		s := New(slog.Default(), sender, history, 0)
		s.SetRooms(seedRooms())
		req.NoError(s.SendMessage("hello"))
	})

	t.Run("is a no-op for blank content", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		sender := mocks.NewMockEnvelopeSender(ctrl)
		history := mocks.NewMockHistoryFetcher(ctrl)
		history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
		sender.EXPECT().Send(wire.NewJoinRoom(5)).Return(nil)
		sender.EXPECT().Send(wire.NewMarkRead(5)).Return(nil)

		s := New(slog.Default(), sender, history, 0)
		s.SetRooms(seedRooms())
		s.SelectRoom(context.Background(), 5)
		s.Wait()

		req.NoError(s.SendMessage("   \t  "))
	})

	t.Run("rejects content above the wire cap", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		sender := mocks.NewMockEnvelopeSender(ctrl)
		history := mocks.NewMockHistoryFetcher(ctrl)
		history.EXPECT().RoomMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
		sender.EXPECT().Send(wire.NewJoinRoom(5)).Return(nil)
		sender.EXPECT().Send(wire.NewMarkRead(5)).Return(nil)

		s := New(slog.Default(), sender, history, 0)
		s.SetRooms(seedRooms())
		s.SelectRoom(context.Background(), 5)
		s.Wait()

		err := s.SendMessage(strings.Repeat("x", wire.MaxContentLength+1))
		req.ErrorIs(err, errors.ErrContentTooLong)
	})
}
