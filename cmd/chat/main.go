package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"shelftalk/archive"
	"shelftalk/auth"
	"shelftalk/domain"
	"shelftalk/domain/event"
	"shelftalk/history"
	"shelftalk/internal"
	"shelftalk/realtime"
	"shelftalk/store"
)

// Exit codes for the chat client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles configuration loading, storage and connection lifecycles,
// and the interactive loop. Returning instead of exiting keeps the defers
// (badger, bluge, websocket teardown) honest.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Fail fast on a token the server would reject anyway.
	claims, err := auth.InspectToken(config.Token)
	if err != nil {
		return exitConfig, fmt.Errorf("token error: %w", err)
	}
	log.Info(fmt.Sprintf("Authenticated as %s", claims.UserID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Local transcript: BadgerDB log + bluge full-text index.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("transcript database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("transcript index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing bluge writer...")
		_ = blugeWriter.Close()
	}()

	repository := archive.NewMessageRepository(db, log, nil)
	index := archive.NewIndex(blugeWriter)

	// 4. Realtime core wiring.
	bus := realtime.NewEventBus(log)
	manager := realtime.NewManager(log, config.WSURL, bus, realtime.Config{
		BaseDelay:   config.ReconnectBaseDelay,
		CapDelay:    config.ReconnectCapDelay,
		MaxAttempts: config.MaxReconnectAttempts,
	})
	defer manager.Disconnect()

	rest := history.NewClient(config.APIURL, config.Token, nil)
	chat := store.New(log, manager, rest, config.HistoryLimit)

	bus.Subscribe(chat.HandleEvent)
	sink := archive.NewTranscriptSink(repository, index, log)
	bus.Subscribe(sink.Consume)
	bus.Subscribe(func(evt event.ServerEvent) {
		renderEvent(chat, evt)
	})

	// 5. Seed the room list over REST, then go live.
	rooms, err := rest.ListRooms(ctx)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not list rooms: %w", err)
	}
	chat.SetRooms(rooms)
	printRooms(chat.Rooms())

	if err := manager.Connect(config.Token); err != nil {
		// The manager already scheduled its reconnections; stay up.
		log.Warn(fmt.Sprintf("Initial connect failed: %v", err))
	}

	color.Gray.Println("Commands: /rooms, /join <id>, /find <terms>, /quit — anything else is sent to the current room")

	// 6. Interactive loop.
	lines := make(chan string)
	go readLines(lines)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping chat client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if done := handleLine(ctx, log, chat, rest, index, line); done {
				return exitOK, nil
			}
		}
	}
}

func readLines(out chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	close(out)
}

func handleLine(ctx context.Context, log *slog.Logger,
	chat *store.Store, rest *history.Client, index *archive.Index, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/rooms":
		rooms, err := rest.ListRooms(ctx)
		if err != nil {
			log.Warn(fmt.Sprintf("Could not refresh rooms: %v", err))
			printRooms(chat.Rooms())
			return false
		}
		chat.SetRooms(rooms)
		printRooms(rooms)
	case strings.HasPrefix(line, "/join "):
		id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/join ")), 10, 64)
		if err != nil {
			color.Red.Println("Usage: /join <room id>")
			return false
		}
		chat.SelectRoom(ctx, domain.RoomID(id))
		color.Green.Printf("Joined room %d\n", id)
	case strings.HasPrefix(line, "/find "):
		terms := strings.TrimSpace(strings.TrimPrefix(line, "/find "))
		hits, err := index.Search(ctx, terms, 10)
		if err != nil {
			log.Warn(fmt.Sprintf("Search failed: %v", err))
			return false
		}
		printHits(hits)
	default:
		if err := chat.SendMessage(line); err != nil {
			log.Warn(fmt.Sprintf("Send failed: %v", err))
		}
	}
	return false
}

func renderEvent(chat *store.Store, evt event.ServerEvent) {
	msg, ok := evt.(event.NewMessage)
	if !ok {
		return
	}
	at := msg.Message.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	if msg.Message.RoomID == chat.CurrentRoomID() {
		color.Cyan.Printf("[%s] user %d: %s\n",
			at.Format(time.TimeOnly), msg.Message.SenderID, msg.Message.Content)
		return
	}
	color.Gray.Printf("(room %d) new message\n", msg.Message.RoomID)
}

func printRooms(rooms []domain.Room) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Kind", "Unread"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, room := range rooms {
		table.Append([]string{
			strconv.FormatInt(int64(room.ID), 10),
			room.Name,
			string(room.Kind),
			strconv.Itoa(room.UnreadCount),
		})
	}
	table.Render()
}

func printHits(hits []archive.Hit) {
	if len(hits) == 0 {
		color.Gray.Println("No transcript matches")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Sender", "At", "Content"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, hit := range hits {
		table.Append([]string{
			strconv.FormatInt(int64(hit.RoomID), 10),
			strconv.FormatInt(hit.SenderID, 10),
			hit.At.Format(time.RFC3339),
			hit.Content,
		})
	}
	table.Render()
}
