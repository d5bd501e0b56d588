// Command devicesim simulates an ESP8266 pin controller for development.
// It connects to the gateway's device port, answers status queries with
// its pin states and acknowledges pin commands, reconnecting with
// exponential backoff when the gateway goes away.
//
// Usage:
//
//	devicesim -url ws://127.0.0.1:8766/ws -pins 5,6,7
//	devicesim -discover
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"

	"github.com/iotify/gateway/internal/mdns"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8766/ws", "Gateway device endpoint")
	pins := flag.String("pins", "5,6,7", "Comma-separated pins this device exposes")
	latency := flag.Duration("latency", 0, "Artificial delay before each answer")
	discover := flag.Bool("discover", false, "Find the gateway via mDNS instead of -url")
	flag.Parse()

	target := *url
	if *discover {
		found, err := discoverGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
			os.Exit(1)
		}
		target = found
		log.Printf("devicesim: discovered gateway at %s", target)
	}

	sim, err := newSimulator(*pins, *latency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim.runLoop(ctx, target)
	log.Printf("devicesim: exiting")
}

// discoverGateway browses mDNS for a gateway advertising a device port.
func discoverGateway() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	gateways, err := mdns.Discover(ctx)
	if err != nil {
		return "", err
	}
	for _, gw := range gateways {
		if gw.Host != "" && gw.DevicePort > 0 {
			return fmt.Sprintf("ws://%s:%d/ws", gw.Host, gw.DevicePort), nil
		}
	}
	return "", fmt.Errorf("no gateway found on the local network")
}

// simulator holds the simulated pin states.
type simulator struct {
	mu      sync.Mutex
	states  map[int]int
	latency time.Duration
}

func newSimulator(pinList string, latency time.Duration) (*simulator, error) {
	states := make(map[int]int)
	for _, part := range strings.Split(pinList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pin, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid pin %q", part)
		}
		states[pin] = 0
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("no pins configured")
	}
	return &simulator{states: states, latency: latency}, nil
}

// runLoop keeps a connection to the gateway alive until ctx is cancelled.
// Failed dials back off exponentially; a successful session resets the
// backoff.
func (s *simulator) runLoop(ctx context.Context, url string) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry forever

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			wait := bo.NextBackOff()
			log.Printf("devicesim: dial %s failed: %v (retrying in %s)", url, err, wait.Round(time.Millisecond))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
			continue
		}

		log.Printf("devicesim: connected to %s", url)
		bo.Reset()
		s.serve(ctx, conn)
		log.Printf("devicesim: connection lost")
	}
}

// serve answers gateway frames on one connection until it breaks or ctx
// is cancelled.
func (s *simulator) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if s.latency > 0 {
			time.Sleep(s.latency)
		}

		answer := s.answer(string(data))
		if answer == "" {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(answer)); err != nil {
			return
		}
	}
}

// answer produces the device's reply to one gateway frame.
// "status" reports all pin states; "pin,state" flips a pin and acks.
// Anything else is ignored, like real firmware would.
func (s *simulator) answer(frame string) string {
	if frame == "status" {
		return s.statusReport()
	}

	pinStr, stateStr, ok := strings.Cut(frame, ",")
	if !ok {
		log.Printf("devicesim: ignoring frame %q", frame)
		return ""
	}
	pin, err1 := strconv.Atoi(pinStr)
	state, err2 := strconv.Atoi(stateStr)
	if err1 != nil || err2 != nil {
		log.Printf("devicesim: ignoring frame %q", frame)
		return ""
	}

	s.mu.Lock()
	s.states[pin] = state
	s.mu.Unlock()

	log.Printf("devicesim: pin %d set to %d", pin, state)
	return "ack:" + frame
}

// statusReport renders "pin:state,pin:state" in ascending pin order.
func (s *simulator) statusReport() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pins := make([]int, 0, len(s.states))
	for pin := range s.states {
		pins = append(pins, pin)
	}
	sort.Ints(pins)

	parts := make([]string, 0, len(pins))
	for _, pin := range pins {
		parts = append(parts, fmt.Sprintf("%d:%d", pin, s.states[pin]))
	}
	return strings.Join(parts, ",")
}
