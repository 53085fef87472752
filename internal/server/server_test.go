package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"

	mid "github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/question"
	"github.com/opencog/question2atomese/pkg/store/memory"
	"github.com/opencog/question2atomese/pkg/translate"
)

const masterKey = "test-master-key"

var jwtSecret = []byte("test-secret")

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []amqp091.Publishing
	keys []string
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	p.keys = append(p.keys, key)
	return nil
}

func newTestApp(t *testing.T) *mid.App {
	t.Helper()
	client, err := translate.NewClient(translate.NewClientParams{})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return &mid.App{
		Storage:      memory.New(),
		Translator:   client,
		MasterAPIKey: masterKey,
		KeyFunc: func(token *jwt.Token) (any, error) {
			return jwtSecret, nil
		},
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func doRequest(t *testing.T, app *mid.App, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := New(app)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const eatQuestion = `{"question_id": 7, "image_id": 3, "question": "What does the cat eat?", "relex": "_obj(eat, _$qVar)\n_subj(eat, cat)\nQUERY-TYPE(_$qVar, what)"}`

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestApp(t), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "nope", http.StatusUnauthorized},
		{"master key", masterKey, http.StatusOK},
		{"viewer", signToken(t, jwt.MapClaims{"sub": "u1", "permissions": []string{mid.PermissionView}}), http.StatusOK},
		{"no permission", signToken(t, jwt.MapClaims{"sub": "u2"}), http.StatusForbidden},
		{"admin", signToken(t, jwt.MapClaims{"sub": "u3", "role": "admin"}), http.StatusOK},
		{"no subject", signToken(t, jwt.MapClaims{"permissions": []string{mid.PermissionView}}), http.StatusUnauthorized},
		{"expired", signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, app, http.MethodGet, "/api/shapes", tt.token, "")
			if rec.Code != tt.want {
				t.Fatalf("GET /api/shapes = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTranslateAndFetch(t *testing.T) {
	app := newTestApp(t)

	rec := doRequest(t, app, http.MethodPost, "/api/translate", masterKey, eatQuestion)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/translate = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Translation common.Translation `json:"translation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Translation.ID == "" || created.Translation.Type != "what" {
		t.Fatalf("unexpected translation: %+v", created.Translation)
	}

	rec = doRequest(t, app, http.MethodGet, "/api/translations/"+created.Translation.ID, masterKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET translation = %d: %s", rec.Code, rec.Body.String())
	}
	var fetched common.Translation
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("failed to decode translation: %v", err)
	}
	if fetched.Scheme != created.Translation.Scheme || fetched.QuestionID != 7 {
		t.Fatalf("fetched translation differs: %+v", fetched)
	}

	rec = doRequest(t, app, http.MethodGet, "/api/shapes?limit=5", masterKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/shapes = %d: %s", rec.Code, rec.Body.String())
	}
	var shapes []common.ShapeCount
	if err := json.Unmarshal(rec.Body.Bytes(), &shapes); err != nil {
		t.Fatalf("failed to decode shapes: %v", err)
	}
	if len(shapes) != 1 || shapes[0].Count != 1 || shapes[0].Shape != created.Translation.Shape {
		t.Fatalf("unexpected shapes: %+v", shapes)
	}

	rec = doRequest(t, app, http.MethodDelete, "/api/translations/"+created.Translation.ID, masterKey, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE translation = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, app, http.MethodGet, "/api/translations/"+created.Translation.ID, masterKey, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET deleted translation = %d, want 404", rec.Code)
	}
}

func TestTranslateRejectsBadInput(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"missing relex", `{"question": "Why?"}`, http.StatusBadRequest},
		{"malformed relation", `{"question": "Why?", "relex": "_subj eat cat"}`, http.StatusUnprocessableEntity},
		{"only ignored relations", `{"question": "The cat?", "relex": "_det(cat, the)"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, app, http.MethodPost, "/api/translate", masterKey, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("POST /api/translate = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if n := app.Storage.(*memory.Storage).Len(); n != 0 {
		t.Fatalf("rejected questions were stored: %d", n)
	}
}

func TestEnqueueQuestions(t *testing.T) {
	app := newTestApp(t)
	body := `{"questions": [` + eatQuestion + `, {"id": "fixed", "question": "Is the car red?", "relex": "_predadj(car, red)"}]}`

	rec := doRequest(t, app, http.MethodPost, "/api/questions", masterKey, body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /api/questions without queue = %d, want 503", rec.Code)
	}

	pub := &recordingPublisher{}
	app.Queue = pub

	rec = doRequest(t, app, http.MethodPost, "/api/questions", masterKey, `{"questions": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /api/questions with no questions = %d, want 400", rec.Code)
	}

	rec = doRequest(t, app, http.MethodPost, "/api/questions", masterKey, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/questions = %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res.IDs) != 2 || res.IDs[0] == "" || res.IDs[1] != "fixed" {
		t.Fatalf("unexpected ids: %v", res.IDs)
	}

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
	var p question.Parsed
	if err := json.Unmarshal(pub.msgs[0].Body, &p); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if p.ID != res.IDs[0] || p.QuestionID != 7 || pub.keys[0] != "translate_queue" {
		t.Fatalf("unexpected message: %+v to %s", p, pub.keys[0])
	}
}
