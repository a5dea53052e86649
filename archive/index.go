package archive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"

	"shelftalk/domain"
)

// Hit is one search result from the transcript index.
type Hit struct {
	RoomID   domain.RoomID
	SenderID int64
	Content  string
	At       time.Time
}

// Index maintains the full-text view of the transcript.
type Index struct {
	writer *bluge.Writer
}

func NewIndex(writer *bluge.Writer) *Index {
	return &Index{writer: writer}
}

// IndexMessage makes the message findable by content. The document key
// reuses the repository layout so the two stores stay correlatable.
func (i *Index) IndexMessage(msg domain.Message) error {
	docID := fmt.Sprintf("msg:%d:%019d:%d", msg.RoomID, msg.CreatedAt.UnixNano(), msg.ID)
	doc := bluge.NewDocument(docID).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("room", strconv.FormatInt(int64(msg.RoomID), 10)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", strconv.FormatInt(msg.SenderID, 10)).StoreValue()).
		AddField(bluge.NewKeywordField("at", msg.CreatedAt.Format(time.RFC3339Nano)).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content and returns up to limit
// hits, best first.
func (i *Index) Search(ctx context.Context, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(terms).SetField("content")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", terms, err)
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "content":
				hit.Content = string(value)
			case "room":
				if id, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					hit.RoomID = domain.RoomID(id)
				}
			case "sender":
				if id, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					hit.SenderID = id
				}
			case "at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.At = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
