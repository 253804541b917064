package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"taskboard/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithToken("tok"), WithLogger(logger), WithMoveRetries(2, time.Millisecond)}, opts...)
	return New(srv.URL+"/", opts...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGetProjectDecodesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/projects/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", got)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"p1","title":"Launch","status":"Planning","progress":0,
			"columns":[{"id":"c1","title":"To Do","order":0,"project_id":"p1"}],
			"tasks":[{"id":"t1","content":"Write brief","priority":"High","column_id":"c1","order":0,"due_date":"2026-05-01T00:00:00Z"}],
			"members":[{"id":"u1","name":"Ann","email":"ann@example.com","role":"owner"}]}}`)
	})

	detail, err := c.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if detail.ID != "p1" || detail.Title != "Launch" {
		t.Fatalf("unexpected project: %#v", detail.Project)
	}
	if len(detail.Columns) != 1 || detail.Columns[0].Title != "To Do" {
		t.Fatalf("unexpected columns: %#v", detail.Columns)
	}
	if len(detail.Tasks) != 1 || detail.Tasks[0].Priority != domain.PriorityHigh || detail.Tasks[0].DueDate == nil {
		t.Fatalf("unexpected tasks: %#v", detail.Tasks)
	}
	if len(detail.Members) != 1 || detail.Members[0].Role != "owner" {
		t.Fatalf("unexpected members: %#v", detail.Members)
	}
}

func TestErrorMessagePreference(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "error field", status: http.StatusBadRequest, body: `{"success":false,"error":"Content and column_id are required","message":"ignored"}`, want: "Content and column_id are required"},
		{name: "message field", status: http.StatusInternalServerError, body: `{"success":false,"message":"db down"}`, want: "db down"},
		{name: "fallback", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Failed to create task"},
		{name: "success false on 200", status: http.StatusOK, body: `{"success":false}`, want: "Failed to create task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.CreateTask(context.Background(), domain.NewTask{Content: "x", ColumnID: "c1"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Message != tt.want || apiErr.StatusCode != tt.status {
				t.Fatalf("unexpected error: %#v", apiErr)
			}
		})
	}
}

func TestNotFoundUnwrapsToDomainError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success":false,"error":"Project not found"}`)
	})
	_, err := c.GetProject(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Project not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCreateTaskSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["content"] != "Write brief" || body["column_id"] != "c1" || body["priority"] != "Medium" {
			t.Errorf("unexpected body: %#v", body)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type")
		}
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":"task-1","content":"Write brief","priority":"Medium","column_id":"c1","order":2}}`)
	})
	task, err := c.CreateTask(context.Background(), domain.NewTask{Content: "Write brief", Priority: domain.PriorityMedium, ColumnID: "c1"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.ID != "task-1" || task.Order != 2 {
		t.Fatalf("unexpected task: %#v", task)
	}
}

func TestDeleteTaskIgnoresMissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Task deleted"}`)
	})
	if err := c.DeleteTask(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestMoveTaskRetriesWithSameIdempotencyKey(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get(headerIdempotencyKey))
		n := len(keys)
		mu.Unlock()
		if n == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{"success":false,"error":"busy"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"t1","content":"x","priority":"Low","column_id":"c2","order":0}}`)
	})

	col := "c2"
	order := 0
	task, err := c.MoveTask(context.Background(), "t1", domain.MoveRequest{ColumnID: &col, Order: &order})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if task.ColumnID != "c2" {
		t.Fatalf("unexpected task: %#v", task)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Fatalf("expected retries to reuse the idempotency key, got %v", keys)
	}
}

func TestMoveTaskDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, `{"success":false,"error":"column_id or order is required"}`)
	})
	order := 1
	if _, err := c.MoveTask(context.Background(), "t1", domain.MoveRequest{Order: &order}); err == nil {
		t.Fatalf("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestMoveTaskGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{"success":false,"error":"Failed to move task"}`)
	})
	order := 1
	_, err := c.MoveTask(context.Background(), "t1", domain.MoveRequest{Order: &order})
	if err == nil || err.Error() != "Failed to move task" {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("expected 1 attempt + 2 retries, got %d", n)
	}
}

func TestTransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	logger, _ := test.NewNullLogger()
	c := New(url, WithLogger(logger))
	err := c.DeleteTask(context.Background(), "t1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 0 || apiErr.Err == nil {
		t.Fatalf("expected transport error, got %#v", apiErr)
	}
	if !strings.HasPrefix(err.Error(), "Failed to delete task: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !retryable(err) {
		t.Fatalf("transport errors should be retryable")
	}
}

func TestListTasksEncodesFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("column_id") != "c1" || r.URL.Query().Get("assignee_id") != "u1" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	tasks, err := c.ListTasks(context.Background(), domain.TaskFilter{ColumnID: "c1", AssigneeID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestRequestsProduceSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success":false,"error":"Task not found"}`)
	}, WithTracerProvider(tp))

	_, _ = c.UpdateTask(context.Background(), "t1", domain.TaskPatch{})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "taskboard.client PUT /api/tasks/:id" {
		t.Fatalf("unexpected span name %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[0].Status.Code)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New("")
	if c.baseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %q", c.baseURL)
	}
	if c.logger != log.StandardLogger() {
		t.Fatalf("expected standard logger by default")
	}
}
