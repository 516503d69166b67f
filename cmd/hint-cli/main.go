package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	httpadapter "github.com/satriahrh/dsa-assistant/adapters/http"
	ws "github.com/satriahrh/dsa-assistant/adapters/websocket"
	"github.com/satriahrh/dsa-assistant/domain"
)

// transcript is the client-side conversation. The server keeps none.
type transcript struct {
	mu         sync.Mutex
	problemURL string
	turns      []domain.Turn
}

func (t *transcript) add(sender, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, _ := json.Marshal(time.Now().UTC())
	t.turns = append(t.turns, domain.Turn{Sender: sender, Text: text, ProblemURL: t.problemURL, Timestamp: ts})
}

func (t *transcript) snapshot() (string, []domain.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.problemURL, append([]domain.Turn(nil), t.turns...)
}

func (t *transcript) reset(problemURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.problemURL = problemURL
	t.turns = nil
}

func main() {
	server := flag.String("server", "http://localhost:5000", "relay base URL")
	problem := flag.String("url", "", "LeetCode problem URL")
	flag.Parse()

	token, err := newSession(*server)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	wsURL, err := websocketURL(*server, token)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer conn.Close()

	conv := &transcript{problemURL: *problem}

	go func() {
		for {
			var reply ws.Reply
			if err := conn.ReadJSON(&reply); err != nil {
				log.Println("Error reading message:", err)
				os.Exit(1)
			}
			switch reply.Type {
			case ws.TypeHint:
				conv.add("bot", reply.Hint)
				fmt.Printf("\n💡 %s\n> ", reply.Hint)
			case ws.TypeAnalysis:
				fmt.Printf("\n📋 %s\n> ", reply.Analysis)
			case ws.TypeReset:
				fmt.Printf("\n🔄 %s\n> ", reply.Message)
			case ws.TypeError:
				fmt.Printf("\n❌ [%d] %s %s\n> ", reply.Status, reply.Error, reply.Details)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		conn.Close()
		os.Exit(0)
	}()

	fmt.Println("Ask for hints. Commands: /url <problem-url>, /analyze, /reset, exit")
	reader := bufio.NewReader(os.Stdin)
	seq := 0
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return
		}

		seq++
		frame := ws.Request{ID: strconv.Itoa(seq)}
		problemURL, history := conv.snapshot()

		switch {
		case strings.HasPrefix(line, "/url "):
			conv.reset(strings.TrimSpace(strings.TrimPrefix(line, "/url ")))
			fmt.Println("Problem set; transcript cleared.")
			continue
		case line == "/analyze":
			frame.Type = ws.TypeAnalyzeProblem
			frame.ProblemURL = problemURL
		case line == "/reset":
			conv.reset(problemURL)
			frame.Type = ws.TypeResetConversation
		default:
			frame.Type = ws.TypeGenerateHint
			frame.ProblemURL = problemURL
			frame.UserQuestion = line
			frame.ConversationHistory = history
			conv.add("user", line)
		}

		if err := conn.WriteJSON(frame); err != nil {
			log.Println("Error sending message:", err)
			return
		}
	}
}

func newSession(server string) (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(strings.TrimRight(server, "/")+"/api/session", "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session request failed with status %d", resp.StatusCode)
	}
	var session httpadapter.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode session: %w", err)
	}
	return session.Token, nil
}

func websocketURL(server, token string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
