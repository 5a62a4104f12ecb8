package remote

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPublishBadBroker(t *testing.T) {
	// Connecting to a non-existent broker should return a connect error.
	o := Options{Broker: "tcp://127.0.0.1:19999", ClientID: "test-client", Topic: "test/topic"}
	if err := Publish(o, "WAKE"); err == nil {
		t.Fatal("expected error for unreachable broker")
	}
}

func TestPublishBadScheme(t *testing.T) {
	// A completely invalid broker URL should fail.
	o := Options{Broker: "not-a-url", ClientID: "test-client", Topic: "test/topic"}
	if err := Publish(o, "WAKE"); err == nil {
		t.Fatal("expected error for invalid broker URL")
	}
}

func TestPublishRequiresBrokerAndTopic(t *testing.T) {
	tests := []struct {
		name string
		o    Options
		want string
	}{
		{"no broker", Options{Topic: "t"}, "broker"},
		{"no topic", Options{Broker: "tcp://127.0.0.1:1883"}, "topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Publish(tt.o, "WAKE")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Publish() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSubscribeBadBroker(t *testing.T) {
	o := Options{Broker: "tcp://127.0.0.1:19999", ClientID: "test-listen", Topic: "test/topic"}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := Subscribe(ctx, o, func(string) { t.Error("unexpected message") })
	if err == nil {
		t.Fatal("expected error for unreachable broker")
	}
}

func TestSubscribeRequiresTopic(t *testing.T) {
	err := Subscribe(context.Background(), Options{Broker: "tcp://127.0.0.1:1883"}, func(string) {})
	if err == nil {
		t.Fatal("expected error without topic")
	}
}

func TestClientOptions(t *testing.T) {
	o := Options{Broker: "tcp://broker:1883", ClientID: "ms", Username: "u", Password: "p"}
	co := o.clientOptions()
	if co.ClientID != "ms" || co.Username != "u" || co.Password != "p" {
		t.Errorf("client options = %q %q %q", co.ClientID, co.Username, co.Password)
	}
	if len(co.Servers) != 1 || co.Servers[0].Host != "broker:1883" {
		t.Errorf("Servers = %v", co.Servers)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"WAKE", "WAKE"},
		{"  hope\n", "hope"},
		{`{"mood": "CONFLICT"}`, "CONFLICT"},
		{`{"mood": " void ", "source": "x"}`, "void"},
		{`{"other": 1}`, ""},
		{`{broken`, "{broken"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Decode([]byte(tt.payload)); got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}
