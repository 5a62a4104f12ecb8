// Package remote carries mood changes over MQTT: send publishes a mood name
// to a topic and listen feeds every message on it to the engine.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const timeout = 5 * time.Second

// Options identify the broker and topic.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	QoS      byte
	Retain   bool
}

func (o Options) validate() error {
	if o.Broker == "" {
		return errors.New("mqtt: no broker configured")
	}
	if o.Topic == "" {
		return errors.New("mqtt: no topic configured")
	}
	return nil
}

func (o Options) clientOptions() *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetConnectTimeout(timeout)

	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}
	return opts
}

func connect(c pahomqtt.Client) error {
	tok := c.Connect()
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	return nil
}

// Publish connects to the broker, publishes mood to the topic, and
// disconnects. Each invocation creates a fresh connection.
func Publish(o Options, mood string) error {
	if err := o.validate(); err != nil {
		return err
	}
	client := pahomqtt.NewClient(o.clientOptions())
	if err := connect(client); err != nil {
		return err
	}
	defer client.Disconnect(250)

	pub := client.Publish(o.Topic, o.QoS, o.Retain, mood)
	if !pub.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}

// Subscribe connects, subscribes to the topic and calls fn with the decoded
// mood of every message until ctx is done. fn runs on the client's
// goroutine and must not block for long. Lost connections are re-established
// and the subscription renewed.
func Subscribe(ctx context.Context, o Options, fn func(mood string)) error {
	if err := o.validate(); err != nil {
		return err
	}

	handler := func(_ pahomqtt.Client, m pahomqtt.Message) {
		fn(Decode(m.Payload()))
	}

	subscribed := make(chan error, 1)
	opts := o.clientOptions().
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			fmt.Fprintf(os.Stderr, "remote: connection lost: %v\n", err)
		}).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			tok := c.Subscribe(o.Topic, o.QoS, handler)
			tok.WaitTimeout(timeout)
			err := tok.Error()
			select {
			case subscribed <- err:
			default:
				if err != nil {
					fmt.Fprintf(os.Stderr, "remote: resubscribe: %v\n", err)
				}
			}
		})

	client := pahomqtt.NewClient(opts)
	if err := connect(client); err != nil {
		return err
	}
	defer client.Disconnect(250)

	select {
	case err := <-subscribed:
		if err != nil {
			return fmt.Errorf("mqtt: subscribe: %w", err)
		}
	case <-time.After(timeout):
		return fmt.Errorf("mqtt: subscribe timeout")
	case <-ctx.Done():
		return nil
	}

	<-ctx.Done()
	client.Unsubscribe(o.Topic).WaitTimeout(timeout)
	return nil
}

// message is the JSON payload form.
type message struct {
	Mood string `json:"mood"`
}

// Decode extracts a mood name from a payload: either the bare name or a
// JSON object with a "mood" field.
func Decode(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if strings.HasPrefix(s, "{") {
		var m message
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return strings.TrimSpace(m.Mood)
		}
	}
	return s
}
