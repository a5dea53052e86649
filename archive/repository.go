//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_archive.go -package=mocks
// Package archive keeps a local transcript of every message the
// connection delivered: a BadgerDB log for chronological reads and a
// bluge index for full-text search. The transcript is observability for
// the user, not an offline queue; nothing in the sync core reads it back.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"shelftalk/domain"
)

type IMessageRepository interface {
	StoreMessage(msg domain.Message) error
	GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit *int) MessageRepository {
	return MessageRepository{db: db, log: log, limit: limit}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using a UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(msg domain.Message) error {
	key := fmt.Sprintf("msg:%d:%019d:%s",
		msg.RoomID,
		msg.CreatedAt.UnixNano(),
		uuid.New(),
	)
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetMessages retrieves messages for a room using a reverse prefix scan.
// Thanks to the padded timestamp in the key, messages come back newest
// first. The optional cursor resumes a previous page; collection stops at
// the configured limit.
func (m MessageRepository) GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var values [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%d:", roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk back.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limit != nil && len(values) == *m.limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				values = append(values, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]domain.Message, 0, len(values))
	for _, value := range values {
		var msg domain.Message
		if err = json.Unmarshal(value, &msg); err != nil {
			return nil, nil, err
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}
