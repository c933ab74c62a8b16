package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dokzlo13/irlightd/internal/config"
)

type haRequest struct {
	path   string
	auth   string
	entity string
}

func newHAServer(t *testing.T, status int) (*httptest.Server, func() []haRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []haRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		requests = append(requests, haRequest{
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			entity: body["entity_id"],
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []haRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]haRequest(nil), requests...)
	}
}

func TestHomeAssistant_DeliversInOrder(t *testing.T) {
	srv, requests := newHAServer(t, http.StatusOK)
	g := NewHomeAssistant(HomeAssistantOptions{URL: srv.URL + "/", Token: "tok", RateLimitRPS: 1000})

	for _, id := range []string{"button.on", "button.down", "button.down"} {
		g.Activate(context.Background(), id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g.Close(ctx)

	got := requests()
	if len(got) != 3 {
		t.Fatalf("got %d requests, want 3", len(got))
	}
	var entities []string
	for _, r := range got {
		if r.path != "/api/services/homeassistant/turn_on" {
			t.Errorf("path = %q", r.path)
		}
		if r.auth != "Bearer tok" {
			t.Errorf("auth = %q", r.auth)
		}
		entities = append(entities, r.entity)
	}
	if want := []string{"button.on", "button.down", "button.down"}; !reflect.DeepEqual(entities, want) {
		t.Errorf("entities = %v, want %v", entities, want)
	}
}

func TestHomeAssistant_ErrorsAreNotFatal(t *testing.T) {
	srv, requests := newHAServer(t, http.StatusInternalServerError)
	g := NewHomeAssistant(HomeAssistantOptions{URL: srv.URL, Token: "tok", RateLimitRPS: 1000})

	g.Activate(context.Background(), "button.a")
	g.Activate(context.Background(), "button.b")
	g.Close(context.Background())

	if got := requests(); len(got) != 2 {
		t.Errorf("got %d requests, want 2 even after errors", len(got))
	}
}

func TestHomeAssistant_ActivateAfterCloseIsDropped(t *testing.T) {
	srv, requests := newHAServer(t, http.StatusOK)
	g := NewHomeAssistant(HomeAssistantOptions{URL: srv.URL, Token: "tok"})

	g.Close(context.Background())
	g.Activate(context.Background(), "button.late")
	g.Close(context.Background())

	if got := requests(); len(got) != 0 {
		t.Errorf("got %d requests after close", len(got))
	}
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  interface{}
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic, qos, retained, payload})
	return newFakeToken(nil)
}

func TestMQTT_Activate(t *testing.T) {
	pub := &fakePublisher{}
	g := NewMQTT(pub, "blaster/%s/press", 1)

	g.Activate(context.Background(), "living_on")

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages", len(pub.messages))
	}
	want := publishedMessage{"blaster/living_on/press", 1, false, PressPayload}
	if pub.messages[0] != want {
		t.Errorf("message = %+v, want %+v", pub.messages[0], want)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		publisher Publisher
		wantType  interface{}
		wantErr   bool
	}{
		{"log", config.Config{Gateway: config.GatewayConfig{Type: config.GatewayLog}}, nil, &Log{}, false},
		{"homeassistant", config.Config{Gateway: config.GatewayConfig{Type: config.GatewayHomeAssistant}}, nil, &HomeAssistant{}, false},
		{"mqtt", config.Config{Gateway: config.GatewayConfig{Type: config.GatewayMQTT, MQTTTopic: "p/%s"}}, &fakePublisher{}, &MQTT{}, false},
		{"mqtt_without_connection", config.Config{Gateway: config.GatewayConfig{Type: config.GatewayMQTT}}, nil, nil, true},
		{"unknown", config.Config{Gateway: config.GatewayConfig{Type: "ir"}}, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(&tt.cfg, tt.publisher)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer g.Close(context.Background())
			if reflect.TypeOf(g) != reflect.TypeOf(tt.wantType) {
				t.Errorf("New() = %T, want %T", g, tt.wantType)
			}
		})
	}
}
