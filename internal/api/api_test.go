package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/zhishi/internal/assist"
	"github.com/starford/zhishi/internal/clipboard"
	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/noteservice"
	"github.com/starford/zhishi/internal/scheduler"
	"github.com/starford/zhishi/internal/testutil"
)

var start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc    *noteservice.Service
	router http.Handler
	clock  *scheduler.Manual
	clip   *clipboard.Memory
	ai     *testutil.FakeAI
}

func seedNotes(ids ...string) []models.Note {
	out := make([]models.Note, 0, len(ids))
	for i, id := range ids {
		out = append(out, models.Note{
			ID:        id,
			Title:     "Note " + id,
			Content:   "content of " + id,
			Tags:      []string{},
			CreatedAt: start.UnixMilli(),
			UpdatedAt: start.Add(-time.Duration(i) * time.Minute).UnixMilli(),
		})
	}
	return out
}

// newEnv builds a service over seeded in-memory storage and a router with
// auth enabled when token is non-empty.
func newEnv(t *testing.T, token string, seed ...models.Note) *testEnv {
	t.Helper()
	return newEnvWithEvents(t, token, nil, seed...)
}

func newEnvWithEvents(t *testing.T, token string, events http.Handler, seed ...models.Note) *testEnv {
	t.Helper()
	ctx := context.Background()
	gw, _ := testutil.TestGateway(t)
	if len(seed) > 0 {
		if err := gw.SaveNotes(ctx, seed); err != nil {
			t.Fatalf("SaveNotes: %v", err)
		}
	}
	env := &testEnv{
		clock: scheduler.NewManual(start),
		clip:  &clipboard.Memory{},
		ai:    &testutil.FakeAI{Polished: "Polished.", Reply: "hi there"},
	}
	env.svc = noteservice.New(gw,
		noteservice.WithLogger(testutil.Logger()),
		noteservice.WithScheduler(env.clock),
		noteservice.WithClock(env.clock),
		noteservice.WithIndex(testutil.TestDB(t)),
		noteservice.WithAI(env.ai),
	)
	if err := env.svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	env.router = NewRouter(env.svc, RouterConfig{
		AuthEnabled: token != "",
		Token:       token,
		Events:      events,
		Clipboard:   env.clip,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, w.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func (e *testEnv) open(t *testing.T, id string) {
	t.Helper()
	expectStatus(t, e.do(t, http.MethodPut, "/active", SelectRequest{ID: id}), http.StatusOK)
}

func TestCreateAndGetNote(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)

	w := env.do(t, http.MethodPost, "/notes", CreateNoteRequest{Category: "work"})
	expectStatus(t, w, http.StatusCreated)
	created := decode[models.Note](t, w)
	if created.Category != "work" || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	w = env.do(t, http.MethodGet, "/active", nil)
	expectStatus(t, w, http.StatusOK)
	if st := decode[EditorState](t, w); st.Note.ID != created.ID {
		t.Errorf("active = %q, want %q", st.Note.ID, created.ID)
	}

	w = env.do(t, http.MethodGet, "/notes/"+created.ID, nil)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/notes", nil)
	if list := decode[NoteListResponse](t, w); list.Total != 2 || list.Notes[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateNote_EmptyBody(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	w := env.do(t, http.MethodPost, "/notes", nil)
	expectStatus(t, w, http.StatusCreated)
}

func TestGetNote_NotFound(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	expectStatus(t, env.do(t, http.MethodGet, "/notes/nope", nil), http.StatusNotFound)
}

func TestActive_NoneOpen(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	expectStatus(t, env.do(t, http.MethodGet, "/active", nil), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPatch, "/active", PatchRequest{}), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPut, "/active", SelectRequest{ID: "ghost"}), http.StatusNotFound)
}

func TestImportNote(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	w := env.do(t, http.MethodPost, "/notes/import", ImportNoteRequest{Title: "Imported", Content: "# Imported", Tags: []string{"x"}})
	expectStatus(t, w, http.StatusCreated)

	if st := decode[EditorState](t, env.do(t, http.MethodGet, "/active", nil)); st.Note.ID != "a" {
		t.Errorf("import changed the active note to %q", st.Note.ID)
	}
	expectStatus(t, env.do(t, http.MethodPost, "/notes/import", []byte("{")), http.StatusBadRequest)
}

func TestEditUndoRedo(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	content := "Hello"
	w := env.do(t, http.MethodPatch, "/active", PatchRequest{Content: &content})
	expectStatus(t, w, http.StatusOK)
	env.clock.Advance(300 * time.Millisecond)

	w = env.do(t, http.MethodPost, "/active/undo", nil)
	expectStatus(t, w, http.StatusOK)
	step := decode[StepResponse](t, w)
	if !step.Moved || step.Note.Content != "content of a" {
		t.Fatalf("undo = %+v", step)
	}
	if !step.History.CanRedo {
		t.Error("redo should be available after undo")
	}

	step = decode[StepResponse](t, env.do(t, http.MethodPost, "/active/redo", nil))
	if step.Note.Content != "Hello" {
		t.Errorf("redo content = %q", step.Note.Content)
	}

	step = decode[StepResponse](t, env.do(t, http.MethodPost, "/active/redo", nil))
	if step.Moved {
		t.Error("redo past the end should not move")
	}
}

func TestSelectionAndInsert(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	w := env.do(t, http.MethodPut, "/active/selection", noteservice.Selection{Start: 7, End: 0})
	expectStatus(t, w, http.StatusOK)
	if sel := decode[noteservice.Selection](t, w); sel != (noteservice.Selection{Start: 0, End: 7}) {
		t.Errorf("selection = %+v", sel)
	}

	w = env.do(t, http.MethodPost, "/active/insert", InsertRequest{Prefix: "**", Suffix: "**"})
	expectStatus(t, w, http.StatusOK)
	if res := decode[InsertResponse](t, w); res.Note.Content != "**content** of a" {
		t.Errorf("snippet content = %q", res.Note.Content)
	}

	w = env.do(t, http.MethodPost, "/active/insert", InsertRequest{Text: "!"})
	if res := decode[InsertResponse](t, w); res.Note.Content != "**!** of a" {
		t.Errorf("insert content = %q", res.Note.Content)
	}
}

func TestSaveAndStats(t *testing.T) {
	env := newEnv(t, "", seedNotes("a", "b")...)
	env.open(t, "b")

	// b must end up strictly newer than a; equal stamps keep store order.
	env.clock.Advance(time.Millisecond)
	title := "Renamed"
	env.do(t, http.MethodPatch, "/active", PatchRequest{Title: &title})
	w := env.do(t, http.MethodPost, "/active/save", nil)
	expectStatus(t, w, http.StatusOK)

	list := decode[NoteListResponse](t, env.do(t, http.MethodGet, "/notes", nil))
	if list.Notes[0].ID != "b" || list.Notes[0].Title != "Renamed" {
		t.Errorf("first note = %s %q, want b \"Renamed\"", list.Notes[0].ID, list.Notes[0].Title)
	}

	w = env.do(t, http.MethodGet, "/active/stats", nil)
	expectStatus(t, w, http.StatusOK)
	if st := decode[models.Stats](t, w); st.Words != 3 {
		t.Errorf("words = %d, want 3", st.Words)
	}
}

func TestDeleteNote(t *testing.T) {
	env := newEnv(t, "", seedNotes("a", "b")...)
	env.open(t, "a")

	expectStatus(t, env.do(t, http.MethodDelete, "/notes/a", nil), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/notes/a", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, "/notes/a", nil), http.StatusNotFound)

	if st := decode[EditorState](t, env.do(t, http.MethodGet, "/active", nil)); st.Note.ID != "b" {
		t.Errorf("active after delete = %q, want b", st.Note.ID)
	}
}

func TestCategories(t *testing.T) {
	seed := seedNotes("a", "b")
	seed[0].Category = "work"
	env := newEnv(t, "", seed...)

	w := env.do(t, http.MethodGet, "/categories", nil)
	expectStatus(t, w, http.StatusOK)
	cats := decode[[]models.Category](t, w)
	if len(cats) != 1 || cats[0].Name != "work" || cats[0].Count != 1 {
		t.Errorf("categories = %+v", cats)
	}

	list := decode[NoteListResponse](t, env.do(t, http.MethodGet, "/notes?category=uncategorized", nil))
	if list.Total != 1 || list.Notes[0].ID != "b" {
		t.Errorf("uncategorized = %+v", list)
	}
}

func TestSearchEndpoint(t *testing.T) {
	seed := seedNotes("a", "b")
	seed[1].Content = "the quick brown fox"
	env := newEnv(t, "", seed...)

	w := env.do(t, http.MethodGet, "/search?q=fox", nil)
	expectStatus(t, w, http.StatusOK)
	res := decode[SearchResponse](t, w)
	if len(res.Results) != 1 || res.Results[0].ID != "b" {
		t.Errorf("results = %+v", res.Results)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/search", nil), http.StatusBadRequest)
}

func TestPalette(t *testing.T) {
	env := newEnv(t, "", seedNotes("a", "b", "c")...)

	items := decode[PaletteResponse](t, env.do(t, http.MethodGet, "/palette?limit=2", nil)).Items
	if len(items) != 2 || items[0].ID != "a" {
		t.Errorf("recent = %+v", items)
	}

	items = decode[PaletteResponse](t, env.do(t, http.MethodGet, "/palette?q=zzz", nil)).Items
	if len(items) != 0 {
		t.Errorf("no match expected, got %+v", items)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/active/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	expectStatus(t, env.upload(t, "shot.png", pngBytes(t, 8, 8)), http.StatusConflict)

	env.open(t, "a")
	w := env.upload(t, "shot.png", pngBytes(t, 8, 8))
	expectStatus(t, w, http.StatusCreated)
	res := decode[ImageUploadResponse](t, w)
	if res.Width != 8 || res.Caption != "shot" {
		t.Errorf("upload = %+v", res)
	}
	if !strings.Contains(res.Note.Content, "](attachment:"+res.ID+")") {
		t.Errorf("content = %q", res.Note.Content)
	}
	if _, ok := res.Note.Attachments[res.ID]; !ok {
		t.Error("attachment not stored on the note")
	}

	expectStatus(t, env.upload(t, "notes.txt", []byte("plain text")), http.StatusUnsupportedMediaType)
}

func TestUploadImage_MissingFileField(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/active/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestExport(t *testing.T) {
	seed := seedNotes("a")
	seed[0].Content = "# Title\n\n![pic](attachment:att-1)\n\n```go\nfunc main() {}\n```"
	seed[0].Attachments = map[string]string{"att-1": "data:image/png;base64,AAAA"}
	env := newEnv(t, "", seed...)

	w := env.do(t, http.MethodGet, "/notes/a/export", nil)
	expectStatus(t, w, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Note a.md") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "](data:image/png;base64,AAAA)") {
		t.Error("markdown export should inline attachments")
	}

	w = env.do(t, http.MethodGet, "/notes/a/export?format=html&theme=night", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("html export should be a full document")
	}

	w = env.do(t, http.MethodGet, "/notes/a/export?format=terminal&color=false", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Title") {
		t.Errorf("terminal export = %q", w.Body.String())
	}

	expectStatus(t, env.do(t, http.MethodGet, "/notes/a/export?format=pdf", nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/notes/zz/export", nil), http.StatusNotFound)
}

func TestCopyPaste(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	w := env.do(t, http.MethodPost, "/active/copy", nil)
	expectStatus(t, w, http.StatusOK)
	if text, _ := env.clip.ReadText(); text != "content of a" {
		t.Errorf("clipboard = %q", text)
	}

	env.do(t, http.MethodPut, "/active/selection", noteservice.Selection{})
	w = env.do(t, http.MethodPost, "/active/paste", nil)
	expectStatus(t, w, http.StatusOK)
	res := decode[ClipboardResponse](t, w)
	if !res.OK || res.Note == nil || res.Note.Content != "content of acontent of a" {
		t.Errorf("paste = %+v", res)
	}
}

func TestAIProposals(t *testing.T) {
	t.Setenv(assist.EnvKey, "")
	env := newEnv(t, "", seedNotes("a")...)
	env.open(t, "a")

	expectStatus(t, env.do(t, http.MethodPost, "/ai/polish", nil), http.StatusPreconditionRequired)
	if got := decode[map[string]bool](t, env.do(t, http.MethodGet, "/ai", nil)); got["configured"] {
		t.Error("AI should not be configured without a key")
	}

	settings := env.svc.Settings()
	settings.APIKey = "sk-test"
	expectStatus(t, env.do(t, http.MethodPut, "/settings", settings), http.StatusOK)

	w := env.do(t, http.MethodPost, "/ai/polish", nil)
	expectStatus(t, w, http.StatusOK)
	if prop := decode[assist.Proposal](t, w); prop.NoteID != "a" || prop.Text != "Polished." {
		t.Errorf("proposal = %+v", prop)
	}
	if st := decode[noteservice.AIStatus](t, env.do(t, http.MethodGet, "/ai/polish", nil)); st.State != assist.StateReady {
		t.Errorf("state = %q", st.State)
	}

	w = env.do(t, http.MethodPost, "/ai/polish/apply", nil)
	expectStatus(t, w, http.StatusOK)
	if n := decode[models.Note](t, w); n.Content != "Polished." {
		t.Errorf("applied content = %q", n.Content)
	}
	expectStatus(t, env.do(t, http.MethodPost, "/ai/polish/apply", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPost, "/ai/chat", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPost, "/ai/bogus", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, "/ai/analyze", nil), http.StatusNoContent)
}

func TestChat(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	settings := env.svc.Settings()
	settings.APIKey = "sk-test"
	env.do(t, http.MethodPut, "/settings", settings)

	expectStatus(t, env.do(t, http.MethodPost, "/chat", ChatRequest{Message: " "}), http.StatusBadRequest)

	w := env.do(t, http.MethodPost, "/chat", ChatRequest{Message: "hello"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[ChatResponse](t, w); got.Reply != "hi there" {
		t.Errorf("reply = %q", got.Reply)
	}
	if msgs := decode[[]assist.Message](t, env.do(t, http.MethodGet, "/chat", nil)); len(msgs) != 2 {
		t.Errorf("transcript = %+v", msgs)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/chat", nil), http.StatusNoContent)
	if msgs := decode[[]assist.Message](t, env.do(t, http.MethodGet, "/chat", nil)); len(msgs) != 0 {
		t.Errorf("transcript after reset = %+v", msgs)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/chat/context", nil), http.StatusConflict)
	env.open(t, "a")
	w = env.do(t, http.MethodGet, "/chat/context", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w); !strings.Contains(got["prompt"], "content of a") {
		t.Errorf("prompt = %q", got["prompt"])
	}
}

func TestBackupRoundTrip(t *testing.T) {
	src := newEnv(t, "", seedNotes("a", "b")...)
	w := src.do(t, http.MethodGet, "/backup", nil)
	expectStatus(t, w, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "zhishi-backup-2025-03-01.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data := w.Body.Bytes()

	dst := newEnv(t, "", seedNotes("z")...)
	w = dst.do(t, http.MethodPost, "/backup", data)
	expectStatus(t, w, http.StatusOK)
	if got := decode[ImportResponse](t, w); got.Count != 2 {
		t.Errorf("count = %d", got.Count)
	}
	expectStatus(t, dst.do(t, http.MethodGet, "/notes/z", nil), http.StatusNotFound)

	expectStatus(t, dst.do(t, http.MethodPost, "/backup", []byte(`{"version":"other"}`)), http.StatusUnprocessableEntity)
	if list := decode[NoteListResponse](t, dst.do(t, http.MethodGet, "/notes", nil)); list.Total != 2 {
		t.Errorf("invalid import changed the notes: %+v", list)
	}
}

func TestKeys(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)

	bindings := decode[[]map[string]string](t, env.do(t, http.MethodGet, "/keys", nil))
	if len(bindings) == 0 {
		t.Fatal("no bindings listed")
	}

	expectStatus(t, env.do(t, http.MethodPost, "/keys", KeyRequest{Combo: "Ctrl+Z"}), http.StatusConflict)

	env.open(t, "a")
	w := env.do(t, http.MethodPost, "/keys", KeyRequest{Combo: "Ctrl+S"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[KeyResponse](t, w); got.Action != "save" {
		t.Errorf("action = %q", got.Action)
	}

	w = env.do(t, http.MethodPost, "/keys", KeyRequest{Combo: "cmd+k"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[KeyResponse](t, w); got.Action != "palette" {
		t.Errorf("action = %q", got.Action)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/keys", KeyRequest{Combo: "mod+q"}), http.StatusNotFound)
}

func TestSettingsDefaults(t *testing.T) {
	env := newEnv(t, "", seedNotes("a")...)
	w := env.do(t, http.MethodPut, "/settings", models.Settings{UserName: "Mo", MarkdownTheme: "feishu"})
	expectStatus(t, w, http.StatusOK)
	got := decode[models.Settings](t, w)
	if got.MarkdownTheme != models.DefaultTheme || got.Model != models.DefaultModel {
		t.Errorf("settings = %+v", got)
	}
	if got := decode[models.Settings](t, env.do(t, http.MethodGet, "/settings", nil)); got.UserName != "Mo" {
		t.Errorf("stored user name = %q", got.UserName)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newEnv(t, "secret123", seedNotes("a")...)

	req := httptest.NewRequest(http.MethodPost, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newEnv(t, "secret123", seedNotes("a")...)
	if w := env.do(t, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newEnv(t, "secret123", seedNotes("a")...)

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// blockingEvents writes headers and blocks until the request is done.
var blockingEvents = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestEvents_AuthProtected(t *testing.T) {
	env := newEnvWithEvents(t, "secret", blockingEvents, seedNotes("a")...)
	if w := env.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("events no auth = %d, want 401", w.Code)
	}
}

func TestEvents_ValidToken(t *testing.T) {
	env := newEnvWithEvents(t, "tok", blockingEvents, seedNotes("a")...)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("events with valid token = %d, want 200", w.Code)
	}
}

func TestStatusOf(t *testing.T) {
	if got := statusOf(noteservice.ErrStale); got != http.StatusConflict {
		t.Errorf("stale = %d, want 409", got)
	}
	if got := statusOf(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("unknown = %d, want 500", got)
	}
}
