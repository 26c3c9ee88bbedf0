package main

import (
	"bufio"
	"bytes"
	"chat-relay/infrastructure/ws"
	"chat-relay/wire"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// pingInterval refreshes presence well inside the 15-minute expiry window.
const pingInterval = 5 * time.Minute

// Config defines the client-side environment variables.
type Config struct {
	ServerURL   string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080"`
	DisplayName string `envconfig:"CHAT_DISPLAY_NAME"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	// CHAT_COLOURS enables colorized output for better readability
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles configuration loading, the join handshake, history replay,
// and the two live loops (socket reader, stdin sender).
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	color.Enable = config.Colours

	reader := bufio.NewReader(os.Stdin)
	displayName := strings.TrimSpace(config.DisplayName)
	for displayName == "" {
		fmt.Print("Display name: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return exitRuntime, fmt.Errorf("reading display name: %w", err)
		}
		displayName = strings.TrimSpace(line)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Join the chat.
	user, err := join(config.ServerURL, displayName)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf(">>> Joined as %s (%s)\n", user.DisplayName, user.ID)

	// 4. Replay the history window.
	history, err := fetchHistory(config.ServerURL)
	if err != nil {
		return exitRuntime, err
	}
	renderHistory(history)

	// 5. Open the event socket and announce the user.
	conn, err := dialSocket(config.ServerURL)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()
	if err := conn.WriteJSON(map[string]string{"userId": user.ID.String()}); err != nil {
		return exitRuntime, fmt.Errorf("hello frame failed: %w", err)
	}

	// 6. Socket reader: print every broadcast, own messages included.
	go func() {
		for {
			var message wire.Message
			if err := conn.ReadJSON(&message); err != nil {
				if ctx.Err() == nil {
					log.Warn("Socket closed", "error", err)
				}
				stop()
				return
			}
			printMessage(message, user.ID)
		}
	}()

	// 7. Presence refresh.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ping(config.ServerURL, user.ID); err != nil {
					log.Warn("Presence ping failed", "error", err)
				}
			}
		}
	}()

	color.Gray.Println("Type a message and press Enter (Ctrl+C to quit)")

	// 8. Stdin sender loop.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			body := strings.TrimSpace(line)
			if body == "" {
				continue
			}
			if err := send(config.ServerURL, user, body); err != nil {
				color.Red.Printf("send failed: %v\n", err)
			}
		}
	}
}

func join(serverURL, displayName string) (ws.JoinResponse, error) {
	var joined ws.JoinResponse
	err := postJSON(serverURL+"/api/users/join",
		ws.JoinRequest{DisplayName: displayName}, &joined)
	if err != nil {
		return ws.JoinResponse{}, fmt.Errorf("join failed: %w", err)
	}
	return joined, nil
}

func fetchHistory(serverURL string) ([]wire.Message, error) {
	resp, err := http.Get(serverURL + "/api/chat/history")
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch failed: status %d", resp.StatusCode)
	}
	var history []wire.Message
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("history decode failed: %w", err)
	}
	return history, nil
}

func ping(serverURL string, id uuid.UUID) error {
	return postJSON(fmt.Sprintf("%s/api/users/%s/ping", serverURL, id), nil, nil)
}

func send(serverURL string, user ws.JoinResponse, body string) error {
	return postJSON(serverURL+"/api/chat/send", ws.SendMessageRequest{
		SenderID:   user.ID,
		SenderName: user.DisplayName,
		Body:       body,
	}, nil)
}

func postJSON(endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// dialSocket converts the HTTP base URL into the ws:// endpoint.
func dialSocket(serverURL string) (*websocket.Conn, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("socket dial failed: %w", err)
	}
	return conn, nil
}

// renderHistory prints the replayed window as a table, oldest first.
func renderHistory(history []wire.Message) {
	if len(history) == 0 {
		color.Gray.Println("No history yet")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Message"})
	for _, message := range history {
		table.Append([]string{
			message.SentAt.Local().Format(time.TimeOnly),
			message.SenderName,
			message.Body,
		})
	}
	table.Render()
}

func printMessage(message wire.Message, self uuid.UUID) {
	stamp := message.SentAt.Local().Format(time.TimeOnly)
	if message.SenderID == self {
		color.Cyan.Printf("[%s] %s: %s\n", stamp, message.SenderName, message.Body)
		return
	}
	color.Yellow.Printf("[%s] %s: %s\n", stamp, message.SenderName, message.Body)
}
