package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dukerupert/lovetoday/internal/model"
	"github.com/dukerupert/lovetoday/internal/store"
)

// Subscriber registers a browser subscription for daily delivery.
// *push.Directory is the in-process Subscriber.
type Subscriber interface {
	Subscribe(ctx context.Context, endpoint string, payload json.RawMessage, tz string, hour, minute int) (string, error)
}

// DeviceSource returns the browser device registered by this client, or
// nil if there is none.
type DeviceSource interface {
	Device(ctx context.Context) (*model.PushDevice, error)
}

// PushTransport keeps the browser subscription registered at the default
// reminder time. It does not program local alerts.
type PushTransport struct {
	devices    DeviceSource
	subscriber Subscriber
	logger     *slog.Logger
}

func NewPushTransport(devices DeviceSource, sub Subscriber, logger *slog.Logger) *PushTransport {
	return &PushTransport{devices: devices, subscriber: sub, logger: logger}
}

func (t *PushTransport) Name() string { return "push" }

func (t *PushTransport) Apply(ctx context.Context, plan Plan) error {
	dev, err := t.devices.Device(ctx)
	if err != nil {
		return fmt.Errorf("load push device: %w", err)
	}
	if dev == nil {
		t.logger.Info("no push device registered, nothing to subscribe")
		return nil
	}

	endpoint, err := Endpoint(dev.Subscription)
	if err != nil {
		return err
	}
	id, err := t.subscriber.Subscribe(ctx, endpoint, dev.Subscription, dev.Timezone, plan.Default.Hour, plan.Default.Minute)
	if err != nil {
		return fmt.Errorf("subscribe device: %w", err)
	}
	t.logger.Debug("push device subscribed", "id", id, "at", plan.Default.String(), "tz", dev.Timezone)
	return nil
}

// Endpoint extracts the endpoint URL from a browser subscription.
func Endpoint(subscription json.RawMessage) (string, error) {
	var s struct {
		Endpoint string `json:"endpoint"`
	}
	if len(subscription) == 0 {
		return "", nil
	}
	if err := json.Unmarshal(subscription, &s); err != nil {
		return "", fmt.Errorf("decode subscription: %w", err)
	}
	return s.Endpoint, nil
}

// DeviceStore persists the browser device in the key-value store.
type DeviceStore struct {
	kv store.KV
}

func NewDeviceStore(kv store.KV) *DeviceStore {
	return &DeviceStore{kv: kv}
}

func (s *DeviceStore) Device(ctx context.Context) (*model.PushDevice, error) {
	raw, err := s.kv.Get(ctx, store.KeyPushDevice)
	if err != nil {
		return nil, fmt.Errorf("get push device: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var dev model.PushDevice
	if err := json.Unmarshal(raw, &dev); err != nil {
		return nil, fmt.Errorf("decode push device: %w", err)
	}
	return &dev, nil
}

func (s *DeviceStore) SetDevice(ctx context.Context, dev model.PushDevice) error {
	data, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("encode push device: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyPushDevice, data); err != nil {
		return fmt.Errorf("save push device: %w", err)
	}
	return nil
}

// RemoteSubscriber calls a push server's subscribe endpoint.
type RemoteSubscriber struct {
	client *resty.Client
}

func NewRemoteSubscriber(baseURL string) *RemoteSubscriber {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &RemoteSubscriber{client: c}
}

type subscribeRequest struct {
	Subscription json.RawMessage `json:"subscription"`
	TZ           string          `json:"tz"`
	Hour         int             `json:"hour"`
	Minute       int             `json:"minute"`
}

type subscribeResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Subscribe posts the subscription. The endpoint argument is carried inside
// payload, where the server reads it from.
func (r *RemoteSubscriber) Subscribe(ctx context.Context, endpoint string, payload json.RawMessage, tz string, hour, minute int) (string, error) {
	var out subscribeResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&subscribeRequest{Subscription: payload, TZ: tz, Hour: hour, Minute: minute}).
		SetResult(&out).
		SetError(&out).
		Post("/api/push/subscribe")
	if err != nil {
		return "", fmt.Errorf("push server request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("push server status %d: %s", resp.StatusCode(), out.Error)
	}
	return out.ID, nil
}
