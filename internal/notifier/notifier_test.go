package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/emergency-beacon/internal/config"
)

var errTestDeliver = errors.New("test deliver error")

// channelFunc adapts a function to Channel.
type channelFunc func(ctx context.Context, message string) error

func (f channelFunc) Deliver(ctx context.Context, message string) error {
	return f(ctx, message)
}

// TestNotifier_Send reduces every failure mode to a boolean.
func TestNotifier_Send(t *testing.T) {
	t.Parallel()

	var got string

	ok := New("test", channelFunc(func(_ context.Context, message string) error {
		got = message
		return nil
	}), time.Second)

	require.True(t, ok.Send(context.Background(), "hello"))
	require.Equal(t, "hello", got)
	require.Equal(t, "test", ok.Name())

	failing := New("test", channelFunc(func(context.Context, string) error {
		return errTestDeliver
	}), 0)
	require.False(t, failing.Send(context.Background(), "hello"))

	panicking := New("test", channelFunc(func(context.Context, string) error {
		panic("boom")
	}), 0)
	require.False(t, panicking.Send(context.Background(), "hello"))

	require.False(t, New("none", nil, 0).Send(context.Background(), "hello"))
}

// TestNotifier_SendTimeout checks the per-send deadline is applied.
func TestNotifier_SendTimeout(t *testing.T) {
	t.Parallel()

	slow := New("slow", channelFunc(func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}), 10*time.Millisecond)

	require.False(t, slow.Send(context.Background(), "hello"))
}

// TestTwilio_Deliver verifies the request shape and basic auth.
func TestTwilio_Deliver(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))

		if form.Get("To") != "whatsapp:+100" || form.Get("From") != "whatsapp:+200" || form.Get("Body") != "help" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	tw := &Twilio{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+200",
		To:         "whatsapp:+100",
		Endpoint:   srv.URL,
		Client:     srv.Client(),
	}

	require.NoError(t, tw.Deliver(context.Background(), "help"))

	tw.AuthToken = "wrong"
	require.Error(t, tw.Deliver(context.Background(), "help"))

	tw.To = ""
	require.ErrorIs(t, tw.Deliver(context.Background(), "help"), errTwilioIncomplete)
}

// TestPushoverAndNtfy_Deliver checks both HTTP channels against one stub.
func TestPushoverAndNtfy_Deliver(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pushover":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("message") != "help" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		case "/beacon":
			body, _ := io.ReadAll(r.Body)
			if string(body) != "help" || r.Header.Get("Priority") != "urgent" || r.Header.Get("Authorization") != "Bearer tk" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &Pushover{Token: "t", User: "u", Endpoint: srv.URL + "/pushover", Client: srv.Client()}
	require.NoError(t, p.Deliver(context.Background(), "help"))
	require.ErrorIs(t, (&Pushover{}).Deliver(context.Background(), "help"), errPushoverIncomplete)

	n := &Ntfy{URL: srv.URL + "/", Topic: "beacon", Token: "tk", Client: srv.Client()}
	require.NoError(t, n.Deliver(context.Background(), "help"))

	n.Topic = "other"
	require.Error(t, n.Deliver(context.Background(), "help"))
	require.ErrorIs(t, (&Ntfy{}).Deliver(context.Background(), "help"), errNtfyIncomplete)
}

// TestNATS_DeliverWithoutConnection is a configuration failure, not a panic.
func TestNATS_DeliverWithoutConnection(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (&NATS{Subject: "beacon.alert"}).Deliver(context.Background(), "help"), errNATSNotConnected)
}

// TestFromConfig builds every supported channel.
func TestFromConfig(t *testing.T) {
	t.Parallel()

	for _, channel := range []string{
		config.ChannelTwilio,
		config.ChannelPushover,
		config.ChannelNtfy,
		config.ChannelNATS,
		config.ChannelLog,
	} {
		n, err := FromConfig(&config.NotifierConfig{Channel: channel}, nil, time.Second)
		require.NoError(t, err)
		require.Equal(t, channel, n.Name())
	}

	_, err := FromConfig(&config.NotifierConfig{Channel: "fax"}, nil, time.Second)
	require.Error(t, err)

	// Incomplete Twilio settings fail at send time, not at construction.
	n, err := FromConfig(&config.NotifierConfig{Channel: config.ChannelTwilio}, nil, time.Second)
	require.NoError(t, err)
	require.False(t, n.Send(context.Background(), "help"))
}
