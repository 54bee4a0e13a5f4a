package utils

import (
	"net/http/httptest"
	"testing"
)

func TestSetupSSEHeaders(t *testing.T) {
	resp := httptest.NewRecorder()
	SetupSSEHeaders(resp)

	want := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, value := range want {
		if got := resp.Header().Get(key); got != value {
			t.Fatalf("header %s = %q, want %q", key, got, value)
		}
	}
}

func TestSendSSEChunk(t *testing.T) {
	resp := httptest.NewRecorder()
	SendSSEChunk(resp, resp, map[string]string{"event": "delta", "content": "hi"})

	body := resp.Body.String()
	if body != "data: {\"content\":\"hi\",\"event\":\"delta\"}\n\n" {
		t.Fatalf("unexpected sse frame: %q", body)
	}
	if !resp.Flushed {
		t.Fatal("expected response to be flushed")
	}
}
