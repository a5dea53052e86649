package archive

import (
	"fmt"
	"log/slog"

	"shelftalk/domain/event"
)

// TranscriptSink is an event-bus listener that archives every confirmed
// message. Failures are logged and swallowed: the transcript must never
// feed errors back into the sync core.
type TranscriptSink struct {
	repository IMessageRepository
	index      *Index
	log        *slog.Logger
}

func NewTranscriptSink(repository IMessageRepository, index *Index, log *slog.Logger) TranscriptSink {
	return TranscriptSink{repository: repository, index: index, log: log}
}

// Consume handles one server event; anything but new_message is ignored.
func (s TranscriptSink) Consume(evt event.ServerEvent) {
	e, ok := evt.(event.NewMessage)
	if !ok {
		return
	}
	if err := s.repository.StoreMessage(e.Message); err != nil {
		s.log.Warn(fmt.Sprintf("Transcript store failed for message %d: %v", e.Message.ID, err))
		return
	}
	if s.index == nil {
		return
	}
	if err := s.index.IndexMessage(e.Message); err != nil {
		s.log.Warn(fmt.Sprintf("Transcript index failed for message %d: %v", e.Message.ID, err))
	}
}
