/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// stream-client attaches to a relayed camera stream and shows live transfer
// statistics in the terminal.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func main() {
	var (
		host     = flag.String("host", "localhost:3001", "camview API host:port")
		cameraID = flag.Int64("camera", 1, "Camera ID to stream")
		secure   = flag.Bool("secure", false, "Use WSS instead of WS")
		save     = flag.String("save", "", "Write the most recent complete frame to this file")
	)
	flag.Parse()

	scheme := "ws"
	if *secure {
		scheme = "wss"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   *host,
		Path:   "/api/stream/" + strconv.FormatInt(*cameraID, 10),
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Printf("HTTP response status: %s", resp.Status)
		}

		log.Fatalf("Failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	m := newModel(u.String(), *save)
	p := tea.NewProgram(m)

	go readStream(conn, p)

	if _, err := p.Run(); err != nil {
		log.Printf("Error running terminal UI: %v", err)
		os.Exit(1)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// streamMessage is the diagnostic text frame sent before the server closes.
type streamMessage struct {
	Error string `json:"error"`
}

func readStream(conn *websocket.Conn, p *tea.Program) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			p.Send(closedMsg{err: err})
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			p.Send(chunkMsg(data))
		case websocket.TextMessage:
			var msg streamMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Error == "" {
				p.Send(diagnosticMsg(string(data)))
				continue
			}

			p.Send(diagnosticMsg(msg.Error))
		}
	}
}
