package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeModel serves a chat-completion response with the given content.
func fakeModel(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"content": content},
		})
	}))
}

func TestClassify(t *testing.T) {
	srv := fakeModel(t, `{"type": "create_task"}`)
	defer srv.Close()

	intent, err := NewClient(srv.URL, "test").Classify(context.Background(), "buy milk tomorrow")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if intent != IntentCreateTask {
		t.Errorf("intent = %q, want create_task", intent)
	}
}

func TestClassifyUnknownIntent(t *testing.T) {
	srv := fakeModel(t, `{"type": "delete_everything"}`)
	defer srv.Close()

	_, err := NewClient(srv.URL, "test").Classify(context.Background(), "hm")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
}

func TestExtractTaskFencedContent(t *testing.T) {
	srv := fakeModel(t, "```json\n{\"title\": \"Buy milk\", \"due\": {\"type\": \"relative\", \"value\": \"tomorrow\"}}\n```")
	defer srv.Close()

	got, err := NewClient(srv.URL, "test").ExtractTask(context.Background(), "buy milk tomorrow", time.Now())
	if err != nil {
		t.Fatalf("ExtractTask: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Due == nil || got.Due.Type != "relative" || got.Due.Value != "tomorrow" {
		t.Errorf("due = %+v", got.Due)
	}
}

func TestExtractTaskNoDue(t *testing.T) {
	srv := fakeModel(t, `{"title": "Buy milk", "due": null}`)
	defer srv.Close()

	got, err := NewClient(srv.URL, "test").ExtractTask(context.Background(), "buy milk", time.Now())
	if err != nil {
		t.Fatalf("ExtractTask: %v", err)
	}
	if got.Due != nil {
		t.Errorf("due = %+v, want nil", got.Due)
	}
}

func TestExtractTaskBadDueType(t *testing.T) {
	srv := fakeModel(t, `{"title": "Buy milk", "due": {"type": "fuzzy", "value": "soonish"}}`)
	defer srv.Close()

	_, err := NewClient(srv.URL, "test").ExtractTask(context.Background(), "buy milk", time.Now())
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
}

func TestAssignCategoryConfidence(t *testing.T) {
	srv := fakeModel(t, `{"category_id": 3, "confidence": "high"}`)
	defer srv.Close()

	match, err := NewClient(srv.URL, "test").AssignCategory(context.Background(), "Buy milk", []CategoryRef{{ID: 3, Name: "groceries"}})
	if err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}
	if match.CategoryID == nil || *match.CategoryID != 3 || match.Confidence != ConfidenceHigh {
		t.Errorf("match = %+v", match)
	}
}

func TestAssignCategoryUnknownConfidence(t *testing.T) {
	srv := fakeModel(t, `{"category_id": null, "confidence": "certain"}`)
	defer srv.Close()

	_, err := NewClient(srv.URL, "test").AssignCategory(context.Background(), "Buy milk", nil)
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
}

func TestAssignCategoryAbsentConfidence(t *testing.T) {
	srv := fakeModel(t, `{"category_id": null}`)
	defer srv.Close()

	match, err := NewClient(srv.URL, "test").AssignCategory(context.Background(), "Buy milk", nil)
	if err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}
	if match.CategoryID != nil || match.Confidence != ConfidenceLow {
		t.Errorf("match = %+v, want no category at low confidence", match)
	}
}

func TestTimeExpressionNull(t *testing.T) {
	srv := fakeModel(t, `{"time_expression": null}`)
	defer srv.Close()

	expr, err := NewClient(srv.URL, "test").TimeExpression(context.Background(), "sometime later")
	if err != nil {
		t.Fatalf("TimeExpression: %v", err)
	}
	if expr != "" {
		t.Errorf("expr = %q, want empty", expr)
	}
}

func TestCompleteGarbageContent(t *testing.T) {
	srv := fakeModel(t, "Sure! Here is the JSON you asked for.")
	defer srv.Close()

	_, err := NewClient(srv.URL, "test").Classify(context.Background(), "hello")
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "test").Classify(context.Background(), "hello")
	if err == nil {
		t.Fatal("want transport error, got nil")
	}
	if errors.Is(err, ErrBadResponse) {
		t.Fatalf("server error misclassified as bad response: %v", err)
	}
}

func TestUnfence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}\n"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}\n"},
	}
	for _, tc := range cases {
		if got := unfence(tc.in); got != tc.want {
			t.Errorf("unfence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
