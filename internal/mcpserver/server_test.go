package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/zhishi/internal/models"
	"github.com/starford/zhishi/internal/noteservice"
	"github.com/starford/zhishi/internal/scheduler"
	"github.com/starford/zhishi/internal/testutil"
)

var start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()
	ctx := context.Background()
	gw, _ := testutil.TestGateway(t)
	seed := []models.Note{
		{ID: "a", Title: "Groceries", Content: "milk and eggs", Category: "home", Tags: []string{}, UpdatedAt: start.UnixMilli()},
		{ID: "b", Title: "Standup", Content: "deploy the fox service", Tags: []string{}, UpdatedAt: start.Add(-time.Minute).UnixMilli()},
	}
	if err := gw.SaveNotes(ctx, seed); err != nil {
		t.Fatal(err)
	}
	clock := scheduler.NewManual(start)
	svc := noteservice.New(gw,
		noteservice.WithLogger(testutil.Logger()),
		noteservice.WithScheduler(clock),
		noteservice.WithClock(clock),
		noteservice.WithIndex(testutil.TestDB(t)),
	)
	if err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "attach_image":
		result, err = srv.attachImage(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"content": "---\ncategory: work\ntags: [plan]\n---\n# Roadmap\nShip it #q3\n",
	})
	text := resultText(r)
	id, ok := strings.CutPrefix(text, "created: ")
	if r.IsError || !ok {
		t.Fatalf("create result = %q", text)
	}

	n, err := svc.Note(id)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if n.Title != "Roadmap" || n.Category != "work" || len(n.Tags) != 2 {
		t.Errorf("created note = %+v", n)
	}

	r = callTool(t, srv, "read_note", map[string]any{"id": id})
	if got := resultText(r); got != "# Roadmap\nShip it #q3\n" {
		t.Errorf("read result = %q", got)
	}
	if _, active := svc.Active(); active {
		t.Error("create_note must not open the note")
	}
}

func TestCreateNote_Overrides(t *testing.T) {
	srv, svc := testServer(t)
	r := callTool(t, srv, "create_note", map[string]any{
		"content":  "# Heading\nbody",
		"title":    "Explicit",
		"category": "uncategorized",
	})
	id := strings.TrimPrefix(resultText(r), "created: ")
	n, err := svc.Note(id)
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "Explicit" || n.Category != "" {
		t.Errorf("note = %+v", n)
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]any{})
	if got := resultText(r); got != "a\tGroceries\nb\tStandup" {
		t.Errorf("list = %q", got)
	}

	r = callTool(t, srv, "list_notes", map[string]any{"category": "home"})
	if got := resultText(r); got != "a\tGroceries" {
		t.Errorf("list home = %q", got)
	}
}

func TestListCategories(t *testing.T) {
	srv, _ := testServer(t)
	var cats []models.Category
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_categories", nil))), &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].Name != "home" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_notes", map[string]any{"query": "fox"})
	if !strings.Contains(resultText(r), `"id": "b"`) {
		t.Errorf("search = %s", resultText(r))
	}
	r = callTool(t, srv, "search_notes", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAttachImage_DataURI(t *testing.T) {
	srv, svc := testServer(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))

	r := callTool(t, srv, "attach_image", map[string]any{"id": "b", "url": uri, "filename": "chart.png"})
	if r.IsError {
		t.Fatalf("attach failed: %s", resultText(r))
	}
	var res attachResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Caption != "chart" || res.Width != 4 {
		t.Errorf("result = %+v", res)
	}

	n, _ := svc.Note("b")
	if !strings.HasSuffix(n.Content, "\n\n![chart](attachment:"+res.AttachmentID+")") {
		t.Errorf("content = %q", n.Content)
	}

	inline := resultText(callTool(t, srv, "read_note", map[string]any{"id": "b", "inline_images": true}))
	if !strings.Contains(inline, "](data:image/") {
		t.Errorf("inline read = %q", inline)
	}
}

func TestAttachImage_HTTP(t *testing.T) {
	img := pngBytes(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer ts.Close()

	srv, _ := testServer(t)

	r := callTool(t, srv, "attach_image", map[string]any{"id": "a", "url": ts.URL + "/shot.png"})
	if !r.IsError || !strings.Contains(resultText(r), "loopback") {
		t.Fatalf("loopback should be blocked, got %q", resultText(r))
	}

	blockedHost = func(string) error { return nil }
	t.Cleanup(func() { blockedHost = checkBlockedHost })

	r = callTool(t, srv, "attach_image", map[string]any{"id": "a", "url": ts.URL + "/shot.png"})
	if r.IsError {
		t.Fatalf("attach failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"caption":"shot"`) {
		t.Errorf("result = %s", resultText(r))
	}

	r = callTool(t, srv, "attach_image", map[string]any{"id": "a", "url": ts.URL + "/missing.png"})
	if !r.IsError {
		t.Error("expected error for 404")
	}
}

func TestAttachImage_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	text := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))

	cases := map[string]map[string]any{
		"not an image":  {"id": "a", "url": text},
		"bad scheme":    {"id": "a", "url": "ftp://example.com/x.png"},
		"unknown note":  {"id": "zz", "url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))},
		"missing url":   {"id": "a"},
		"metadata host": {"id": "a", "url": "http://169.254.169.254/latest"},
	}
	for name, args := range cases {
		if r := callTool(t, srv, "attach_image", args); !r.IsError {
			t.Errorf("%s: expected error, got %q", name, resultText(r))
		}
	}
}

func TestFilenameFromURL(t *testing.T) {
	cases := map[string]string{
		"https://x.test/a/photo.jpg?s=1": "photo.jpg",
		"https://x.test/":                "",
		"https://x.test/noext":           "",
		"data:image/png;base64,AAAA":     "",
	}
	for in, want := range cases {
		if got := filenameFromURL(in); got != want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "get_note_contract", nil)); got != NoteFormatContract {
		t.Error("contract text mismatch")
	}
}
