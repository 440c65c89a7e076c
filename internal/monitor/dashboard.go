// Package monitor serves the built-in dashboard page that polls the stats
// API and renders live server activity.
package monitor

import (
	"fmt"
	"log"
	"net/http"
)

// handleDashboard serves a self-contained HTML page that refreshes the
// server statistics every two seconds.
func (a *API) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, dashboardHTML); err != nil {
		log.Printf("Error writing dashboard response: %v", err)
	}
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Parley Chat Server Dashboard</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f4f4f4; }
        h1 { color: #333; }
        .cards { display: flex; gap: 15px; flex-wrap: wrap; margin: 20px 0; }
        .card {
            background: white;
            border-radius: 5px;
            padding: 15px 25px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.2);
            min-width: 140px;
        }
        .card .value { font-size: 28px; font-weight: bold; color: #007cba; }
        .card .label { color: #666; font-size: 13px; }
        .status { padding: 5px 10px; border-radius: 3px; display: inline-block; }
        .online { background-color: #d4edda; color: #155724; }
        .offline { background-color: #f8d7da; color: #721c24; }
        ul { background: white; border-radius: 5px; padding: 15px 30px; }
    </style>
</head>
<body>
    <h1>Parley Chat Server Dashboard</h1>
    <div id="status" class="status offline">Offline</div>

    <div class="cards">
        <div class="card"><div class="value" id="clients">0</div><div class="label">Active clients</div></div>
        <div class="card"><div class="value" id="rooms">0</div><div class="label">Rooms</div></div>
        <div class="card"><div class="value" id="mpm">0</div><div class="label">Messages / min</div></div>
        <div class="card"><div class="value" id="total">0</div><div class="label">Total messages</div></div>
        <div class="card"><div class="value" id="uptime">0s</div><div class="label">Uptime</div></div>
    </div>

    <h3>Rooms</h3>
    <ul id="roomList"></ul>
    <h3>Connected clients</h3>
    <ul id="clientList"></ul>

    <script>
        function renderList(id, items) {
            const list = document.getElementById(id);
            list.innerHTML = '';
            (items || []).forEach(function(item) {
                const li = document.createElement('li');
                li.textContent = item;
                list.appendChild(li);
            });
        }

        async function refresh() {
            try {
                const resp = await fetch('/api/stats');
                const stats = await resp.json();
                document.getElementById('clients').textContent = stats.active_clients;
                document.getElementById('rooms').textContent = stats.total_rooms;
                document.getElementById('mpm').textContent = stats.messages_per_minute;
                document.getElementById('total').textContent = stats.message_count;
                document.getElementById('uptime').textContent = stats.uptime;
                const status = document.getElementById('status');
                status.textContent = stats.server_status;
                status.className = 'status online';
                renderList('roomList', stats.room_list);
                renderList('clientList', stats.connected_clients);
            } catch (err) {
                const status = document.getElementById('status');
                status.textContent = 'Offline';
                status.className = 'status offline';
            }
        }

        refresh();
        setInterval(refresh, 2000);
    </script>
</body>
</html>`
