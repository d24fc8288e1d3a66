package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/lovetoday/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	if pub == "" {
		t.Error("expected non-empty public key")
	}
	if priv == "" {
		t.Error("expected non-empty private key")
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestDailyPayloadJSON(t *testing.T) {
	data, err := json.Marshal(DailyPayload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"Love Today","body":"Here’s your loving idea for the day 💛","clickUrl":"/"}`
	if string(data) != want {
		t.Errorf("payload = %s, want %s", data, want)
	}
}

// browserSubscription builds a subscription payload with valid client keys.
func browserSubscription(t *testing.T, endpoint string) json.RawMessage {
	t.Helper()
	pub, _, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	auth := base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef"))
	raw, _ := json.Marshal(map[string]any{
		"endpoint": endpoint,
		"keys":     map[string]string{"p256dh": pub, "auth": auth},
	})
	return raw
}

func TestServiceSendMapsStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantGone bool
		wantErr  bool
	}{
		{http.StatusCreated, false, false},
		{http.StatusNotFound, true, true},
		{http.StatusGone, true, true},
		{http.StatusTooManyRequests, false, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var gotTTL string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTTL = r.Header.Get("TTL")
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			pub, priv, _ := GenerateVAPIDKeys()
			svc := NewService(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv, Subject: "mailto:test@example.com"})
			sub := &model.PushSubscription{Endpoint: srv.URL, Subscription: browserSubscription(t, srv.URL)}

			err := svc.Send(context.Background(), sub, DailyPayload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrGone) != tt.wantGone {
				t.Errorf("errors.Is(err, ErrGone) = %v, want %v", !tt.wantGone, tt.wantGone)
			}
			if gotTTL != "3600" {
				t.Errorf("TTL header = %q, want 3600", gotTTL)
			}
		})
	}
}
