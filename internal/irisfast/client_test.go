package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendTextPostsReply(t *testing.T) {
	var got ReplyRequest
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reply", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		header = r.Header.Get("X-User-Id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-User-Id": "bot", "X-Empty": " "}
	}))
	err := c.SendText(context.Background(), "room-1", "hello", []string{"100"})
	require.NoError(t, err)
	require.Equal(t, ReplyRequest{Type: "text", Room: "room-1", Data: "hello", Mentions: []string{"100"}}, got)
	require.Equal(t, "bot", header)
}

func TestSendTextDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SendText(context.Background(), "room", "hi", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMembersRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/room%201/members", r.URL.EscapedPath())
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"members":[{"user_id":"100","nickname":"Ann"},{"user_id":"200","nickname":"Bo"}]}`))
	}))
	defer srv.Close()

	members, err := NewClient(srv.URL, WithRetry(3)).Members(context.Background(), "room 1")
	require.NoError(t, err)
	require.Equal(t, []Member{{UserID: "100", Nickname: "Ann"}, {UserID: "200", Nickname: "Bo"}}, members)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMembersClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such room", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Members(context.Background(), "ghost")
	require.ErrorContains(t, err, "status=404")
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = NewClient(srv.URL).Members(context.Background(), " ")
	require.Error(t, err)
}

func TestGetConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"port":3000,"polling_speed":100,"message_rate":50,"web_server_endpoint":"http://bot"}`))
	}))
	defer srv.Close()

	cfg, err := NewClient(srv.URL, WithTimeout(2*time.Second)).GetConfig(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "http://bot", cfg.WebserverEndpoint)
}

func TestBackoffDuration(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, backoffDuration(0))
	require.Equal(t, 200*time.Millisecond, backoffDuration(2))
	require.Equal(t, 3200*time.Millisecond, backoffDuration(10))
}

func TestMessageSender(t *testing.T) {
	name := " Ann "
	m := &Message{Sender: &name}
	require.Equal(t, "Ann", m.SenderID())
	require.Equal(t, "Ann", m.SenderName())

	m.JSON = &MessageJSON{UserID: "100"}
	require.Equal(t, "100", m.SenderID())

	require.Empty(t, (&Message{}).SenderName())
}
