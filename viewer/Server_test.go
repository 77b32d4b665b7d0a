package viewer

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob/harvest"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("could not connect: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func testFrame() blob.Frame {
	return blob.Frame{
		MapSize: 100,
		Tick:    3,
		Blobs: []blob.BlobState{
			{X: 10, Y: 20, Heading: 0.5, Mass: 4.2, Pickups: 1},
		},
		Pellets: [][2]float64{{30, 40}, {50, 60}},
	}
}

func TestServerSendsConfigFirst(t *testing.T) {
	config := harvest.DefaultConfig()
	s := NewServer(config)
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	conn := dial(t, web)
	defer conn.Close()

	var first hello
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("could not read the first message: %v", err)
	}
	if first.Type != ConfigMessage {
		t.Errorf("wrong first message type \n\twant(%v) \n\thave(%v)",
			ConfigMessage, first.Type)
	}
	if first.Config != config {
		t.Errorf("wrong config sent \n\twant(%v) \n\thave(%v)", config,
			first.Config)
	}
}

func TestServerBroadcastsToEveryClient(t *testing.T) {
	s := NewServer(harvest.DefaultConfig())
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	conns := []*websocket.Conn{dial(t, web), dial(t, web)}
	for _, conn := range conns {
		defer conn.Close()
		var first hello
		if err := conn.ReadJSON(&first); err != nil {
			t.Fatalf("could not read the config message: %v", err)
		}
	}

	s.Broadcast(Update{Episode: 7, Epsilon: 0.25, Frame: testFrame()})

	for i, conn := range conns {
		var update Update
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("client %v could not read the broadcast: %v", i, err)
		}
		if update.Type != FrameMessage {
			t.Errorf("wrong message type \n\twant(%v) \n\thave(%v)",
				FrameMessage, update.Type)
		}
		if update.Episode != 7 || update.Epsilon != 0.25 {
			t.Errorf("wrong run counters \n\twant(%v, %v) \n\thave(%v, %v)",
				7, 0.25, update.Episode, update.Epsilon)
		}
		if update.Frame.Tick != 3 || len(update.Frame.Blobs) != 1 ||
			len(update.Frame.Pellets) != 2 {
			t.Errorf("frame did not survive the round trip: %+v",
				update.Frame)
		}
	}
}

func TestServerDropsClosedClients(t *testing.T) {
	s := NewServer(harvest.DefaultConfig())
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	conn := dial(t, web)
	var first hello
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("could not read the config message: %v", err)
	}
	if s.ClientCount() != 1 {
		t.Fatalf("wrong client count \n\twant(%v) \n\thave(%v)", 1,
			s.ClientCount())
	}

	conn.Close()
	for i := 0; i < 100; i++ {
		if s.ClientCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("closed client was never dropped \n\twant(%v) \n\thave(%v)",
		0, s.ClientCount())
}
