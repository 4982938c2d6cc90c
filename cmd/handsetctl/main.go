// Package main provides a small client for the handset status server.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/osa030/handset/internal/app/coordinator"
)

var (
	app    = kingpin.New("handsetctl", "Handset status client")
	server = app.Flag("server", "Status server address").Default("http://localhost:8090").String()

	statusCmd = app.Command("status", "Print the current device state")
	watchCmd  = app.Command("watch", "Stream state changes until interrupted")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case statusCmd.FullCommand():
		printStatus()
	case watchCmd.FullCommand():
		watch()
	}
}

func printStatus() {
	resp, err := http.Get(*server + "/status")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var snap coordinator.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printSnapshot(snap)
}

func watch() {
	wsURL := "ws" + strings.TrimPrefix(*server, "http") + "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Printf("Error: failed to connect to %s: %v\n", wsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.Close()
	}()

	fmt.Println("Watching (press Ctrl+C to exit)")
	for {
		var env struct {
			Type string               `json:"type"`
			Ts   *time.Time           `json:"ts"`
			Data coordinator.Snapshot `json:"data"`
		}
		if _, msg, err := conn.ReadMessage(); err != nil {
			return
		} else if err := json.Unmarshal(msg, &env); err != nil {
			fmt.Printf("Error: bad frame: %v\n", err)
			continue
		}
		if env.Ts != nil {
			fmt.Printf("--- %s (%s)\n", env.Type, env.Ts.Local().Format(time.TimeOnly))
		} else {
			fmt.Printf("--- %s\n", env.Type)
		}
		printSnapshot(env.Data)
	}
}

func printSnapshot(snap coordinator.Snapshot) {
	fmt.Printf("State:        %s\n", snap.State)
	fmt.Printf("Screen:       %s\n", snap.Screen)
	fmt.Printf("Registration: %s\n", snap.Registration)
	fmt.Printf("Playback:     %s\n", snap.Playback)
	if snap.Caller != "" {
		fmt.Printf("Caller:       %s\n", snap.Caller)
	}
	if snap.Track != nil {
		fmt.Printf("Track:        %s - %s\n", snap.Track.Artist, snap.Track.Title)
	}
}
