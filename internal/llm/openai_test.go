package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAI_NoKey(t *testing.T) {
	c := NewOpenAIClient("", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatalf("expected error with missing key")
	}
	var ce *CompletionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompletionError, got %T", err)
	}
}

func TestOpenAI_TextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatCompletionsRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "transfer_call" {
			t.Errorf("expected transfer_call tool in request, got %+v", req.Tools)
		}
		if req.ToolChoice != "auto" {
			t.Errorf("expected tool_choice auto, got %q", req.ToolChoice)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Bonjour! "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL)
	reply, err := c.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Tools: []ToolSchema{{
			Name:       "transfer_call",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply.ToolCall != nil {
		t.Fatalf("expected plain text reply, got tool call %+v", reply.ToolCall)
	}
	if reply.Text != "Bonjour!" {
		t.Fatalf("expected trimmed text, got %q", reply.Text)
	}
}

func TestOpenAI_ToolCallReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"schedule_appointment","arguments":"{\"clientName\":\"Marie Dubois\"}"}}
		]}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL)
	reply, err := c.Complete(context.Background(), Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "book"}}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply.ToolCall == nil {
		t.Fatalf("expected tool call")
	}
	if reply.ToolCall.Name != "schedule_appointment" {
		t.Fatalf("unexpected tool name %q", reply.ToolCall.Name)
	}
	var args map[string]string
	if err := json.Unmarshal(reply.ToolCall.Arguments, &args); err != nil {
		t.Fatalf("arguments not json: %v", err)
	}
	if args["clientName"] != "Marie Dubois" {
		t.Fatalf("unexpected arguments: %v", args)
	}
}

func TestOpenAI_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }},
		{"empty_choices", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewOpenAIClient("key", srv.URL)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, err := c.Complete(ctx, Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			if err == nil {
				t.Fatalf("expected error; got nil")
			}
			var ce *CompletionError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CompletionError, got %T", err)
			}
		})
	}
}
