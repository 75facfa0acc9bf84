package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/service/ai"
	authservice "github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/internal/service/planner"
	"github.com/amarw/wayfarer/backend/internal/store"
	"github.com/amarw/wayfarer/backend/internal/stream"
)

type fixture struct {
	server *httptest.Server
	store  *store.Memory
	auth   *authservice.Service
	token  string
	userID string
}

// newFixture boots the full router against in-memory state and a scripted
// model, signed in as a guest.
func newFixture(t *testing.T, turns ...[]*genai.GenerateContentResponse) *fixture {
	t.Helper()

	mem := store.NewMemory()
	authSvc := authservice.NewService(mem, "admin@example.com")

	queue := turns
	factory := func(context.Context) (planner.ModelSession, error) {
		return scriptedSession{queue: &queue}, nil
	}
	plannerSvc := planner.NewService(mem, factory)

	server := httptest.NewServer(NewRouter(mem, authSvc, plannerSvc))
	t.Cleanup(server.Close)

	profile, token := authSvc.SignInAsGuest(context.Background())
	return &fixture{server: server, store: mem, auth: authSvc, token: token, userID: profile.ID}
}

type scriptedSession struct {
	queue *[][]*genai.GenerateContentResponse
}

func (s scriptedSession) Send(context.Context, string, string) (ai.ChunkStream, error) {
	var chunks []*genai.GenerateContentResponse
	if len(*s.queue) > 0 {
		chunks = (*s.queue)[0]
		*s.queue = (*s.queue)[1:]
	}
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

func (f *fixture) request(t *testing.T, method, path, body, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodPost, "/api/auth/signup",
		`{"first_name":"Ada","email":"ada@example.com","password":"pw"}`, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d", resp.StatusCode)
	}
	session := decodeBody[struct {
		Token string `json:"token"`
	}](t, resp)
	if session.Token == "" {
		t.Fatal("signup should return a token")
	}

	resp = f.request(t, http.MethodPost, "/api/auth/signup",
		`{"first_name":"Ada","email":"ada@example.com","password":"pw"}`, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status %d", resp.StatusCode)
	}

	resp = f.request(t, http.MethodPost, "/api/auth/signin",
		`{"email":"ada@example.com","password":"nope"}`, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status %d", resp.StatusCode)
	}

	resp = f.request(t, http.MethodGet, "/api/auth/me", "", session.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d", resp.StatusCode)
	}

	resp = f.request(t, http.MethodPost, "/api/auth/signout", "", session.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signout status %d", resp.StatusCode)
	}
	resp = f.request(t, http.MethodGet, "/api/auth/me", "", session.Token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after signout status %d", resp.StatusCode)
	}
}

func TestChatRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/api/chats", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status %d", resp.StatusCode)
	}
}

func TestCreateAndListChats(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodPost, "/api/chats", `{"title":"Lisbon weekend"}`, f.token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create chat status %d", resp.StatusCode)
	}
	created := decodeBody[chatmodel.Session](t, resp)
	if created.ID == "" || created.Title != "Lisbon weekend" || created.UserID != f.userID {
		t.Fatalf("unexpected chat: %+v", created)
	}

	resp = f.request(t, http.MethodGet, "/api/chats", "", f.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list chats status %d", resp.StatusCode)
	}
	sessions := decodeBody[[]chatmodel.Session](t, resp)
	if len(sessions) != 1 || sessions[0].ID != created.ID {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestListChatsEmptyIsArray(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/api/chats", "", f.token)
	sessions := decodeBody[[]chatmodel.Session](t, resp)
	if sessions == nil || len(sessions) != 0 {
		t.Fatalf("empty sidebar should be an empty array, got %+v", sessions)
	}
}

func sseEvents(body string) []string {
	var events []string
	for _, line := range strings.Split(body, "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
	}
	return events
}

func TestStreamSendEmitsEventSequence(t *testing.T) {
	f := newFixture(t, []*genai.GenerateContentResponse{
		{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "Sure! "}}}},
		}},
		{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{
					Name: stream.ToolProposeItinerary,
					Args: map[string]any{
						"trip_title":  "Lisbon Getaway",
						"destination": "Lisbon",
						"vibe":        "Relaxed",
						"summary":     "A short trip.",
						"days":        []any{},
					},
				}},
			}}},
		}},
	})

	resp := f.request(t, http.MethodPost, "/api/stream",
		`{"message":"Plan a weekend in Lisbon"}`, f.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream body: %v", err)
	}
	body := string(raw)

	// user start, reply start, one delta, resolution, end marker.
	want := []string{"start", "start", "delta", "resolved", "end"}
	got := sseEvents(body)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event sequence %v (body %q)", got, body)
	}
	if !strings.Contains(body, `"trip_title":"Lisbon Getaway"`) {
		t.Fatalf("resolved event should carry the itinerary: %q", body)
	}
	if !strings.Contains(body, `"chatId"`) {
		t.Fatalf("end event should name the auto-created chat: %q", body)
	}
}

func TestStreamSendRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"message":""}`, `{"message":"   \n\t"}`} {
		resp := f.request(t, http.MethodPost, "/api/stream", body, f.token)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestChatsAreOwnerScoped(t *testing.T) {
	f := newFixture(t)

	// f.token belongs to the guest; mint a second account as the intruder.
	signup := f.request(t, http.MethodPost, "/api/auth/signup",
		`{"email":"other@example.com","password":"pw"}`, "")
	intruder := decodeBody[struct {
		Token string `json:"token"`
	}](t, signup)

	resp := f.request(t, http.MethodPost, "/api/chats", `{"title":"mine"}`, f.token)
	created := decodeBody[chatmodel.Session](t, resp)

	resp = f.request(t, http.MethodGet, "/api/chats/"+created.ID+"/messages", "", f.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read status %d", resp.StatusCode)
	}

	resp = f.request(t, http.MethodGet, "/api/chats/"+created.ID+"/messages", "", intruder.Token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign read status %d, want 404", resp.StatusCode)
	}
	resp = f.request(t, http.MethodGet, "/api/chats/no-such-chat/messages", "", f.token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown chat status %d, want 404", resp.StatusCode)
	}

	// The streaming surface refuses the foreign chat too.
	resp = f.request(t, http.MethodPost, "/api/stream",
		`{"chatId":"`+created.ID+`","message":"hijack"}`, intruder.Token)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream body: %v", err)
	}
	if !strings.Contains(string(raw), "event: error") || !strings.Contains(string(raw), "chat not found") {
		t.Fatalf("expected a chat-not-found error event, got %q", raw)
	}

	resp = f.request(t, http.MethodPost, "/api/stream/regenerate",
		`{"chatId":"`+created.ID+`","messageId":"m1"}`, intruder.Token)
	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream body: %v", err)
	}
	if !strings.Contains(string(raw), "chat not found") {
		t.Fatalf("expected a chat-not-found error event, got %q", raw)
	}
}

func TestRegenerateUnknownMessageReportsError(t *testing.T) {
	f := newFixture(t)

	created := decodeBody[chatmodel.Session](t,
		f.request(t, http.MethodPost, "/api/chats", `{"title":"mine"}`, f.token))

	resp := f.request(t, http.MethodPost, "/api/stream/regenerate",
		`{"chatId":"`+created.ID+`","messageId":"missing"}`, f.token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("regenerate status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream body: %v", err)
	}
	if !strings.Contains(string(raw), "event: error") {
		t.Fatalf("expected an error event, got %q", raw)
	}
}

func TestAdminReport(t *testing.T) {
	f := newFixture(t)

	// The guest is not the designated admin.
	resp := f.request(t, http.MethodGet, "/api/admin/report", "", f.token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin status %d", resp.StatusCode)
	}

	signup := f.request(t, http.MethodPost, "/api/auth/signup",
		`{"email":"admin@example.com","password":"pw"}`, "")
	session := decodeBody[struct {
		Token string `json:"token"`
	}](t, signup)

	f.store.CreateSession(context.Background(), f.userID, "a chat")

	resp = f.request(t, http.MethodGet, "/api/admin/report", "", session.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status %d", resp.StatusCode)
	}
	report := decodeBody[struct {
		Users      []json.RawMessage `json:"users"`
		TotalChats int               `json:"totalChats"`
	}](t, resp)
	if len(report.Users) != 1 {
		t.Fatalf("expected the one stored account, got %d users", len(report.Users))
	}
	if report.TotalChats != 1 {
		t.Fatalf("expected one chat, got %d", report.TotalChats)
	}
}
