package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades GET requests on the hub's origin policy and
// registers the new client with the hub.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     hub.origins.checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		if !hub.Register(client) {
			client.closeConn()
		}
	}
}

// HealthHandler reports that the server is up.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Room chat server is running!")
}

// TestPageHandler serves a small browser client for trying the protocol by hand.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPage)
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Room Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log {
            border: 1px solid #ccc;
            height: 320px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
            font-size: 12px;
        }
        fieldset { margin: 8px 0; }
        input[type="text"] { width: 260px; padding: 4px; margin-right: 6px; }
        button { padding: 4px 12px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Room Chat Test</h1>
    <div id="status" class="status disconnected">Disconnected</div>
    <button id="connectButton" onclick="toggleConnection()">Connect</button>

    <fieldset>
        <legend>Login</legend>
        <input type="text" id="username" placeholder="username">
        <button onclick="login()">Login</button>
    </fieldset>

    <fieldset>
        <legend>Rooms</legend>
        <button onclick="send({kind: 'Room#fetchRooms'})">List</button>
        <input type="text" id="roomName" placeholder="room name">
        <button onclick="send({kind: 'Room#createRoom', name: value('roomName')})">Create</button>
        <br>
        <input type="text" id="roomId" placeholder="room id">
        <button onclick="send({kind: 'Room#join', roomId: value('roomId')})">Join</button>
        <button onclick="send({kind: 'Room#leave', roomId: value('roomId')})">Leave</button>
    </fieldset>

    <fieldset>
        <legend>Chat</legend>
        <input type="text" id="content" placeholder="message">
        <button onclick="send({kind: 'Room#sendChat', roomId: value('roomId'), content: value('content')})">Send</button>
    </fieldset>

    <div id="log"></div>

    <script>
        let ws = null;
        let connectionId = '';
        const logDiv = document.getElementById('log');
        const statusDiv = document.getElementById('status');
        const connectButton = document.getElementById('connectButton');

        function value(id) { return document.getElementById(id).value.trim(); }

        function addLine(prefix, text, color) {
            const line = document.createElement('div');
            line.style.color = color;
            line.textContent = prefix + ' ' + text;
            logDiv.appendChild(line);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected ' + connectionId : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { updateStatus(true); };
            ws.onmessage = function(event) {
                const msg = JSON.parse(event.data);
                if (msg.kind === 'Auth#requireUsername') {
                    connectionId = msg.connectionId;
                    updateStatus(true);
                }
                if (msg.kind === 'Room#createRoom') {
                    document.getElementById('roomId').value = msg.roomId;
                }
                addLine('<', event.data, msg.kind === 'error' ? 'red' : 'green');
            };
            ws.onclose = function() {
                addLine('-', 'connection closed', 'gray');
                connectionId = '';
                updateStatus(false);
                ws = null;
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function send(msg) {
            if (!ws || ws.readyState !== WebSocket.OPEN) {
                addLine('-', 'not connected', 'gray');
                return;
            }
            const text = JSON.stringify(msg);
            ws.send(text);
            addLine('>', text, 'blue');
        }

        function login() {
            send({kind: 'Auth#createUser', connectionId: connectionId, username: value('username')});
        }
    </script>
</body>
</html>`
