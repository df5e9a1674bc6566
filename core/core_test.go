package core

import (
	"encoding/json"
	"net/mail"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		data    string
		want    int
		wantErr bool
	}{
		{data: `12`, want: 12},
		{data: `-3`, want: -3},
		{data: `4.9`, want: 4},
		{data: `"15"`, want: 15},
		{data: `" 7 "`, want: 7},
		{data: `""`, want: 0},
		{data: `null`, want: 0},
		{data: `"lol"`, wantErr: true},
		{data: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			var v struct {
				N FlexInt `json:"n"`
			}
			err := json.Unmarshal([]byte(`{"n": `+tt.data+`}`), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && v.N.Int() != tt.want {
				t.Errorf("UnmarshalJSON() = %v, want %v", v.N, tt.want)
			}
		})
	}
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		s    string
		want []DBOrdering
	}{
		{s: "", want: nil},
		{s: "name", want: []DBOrdering{{Field: "name", Ascending: true}}},
		{s: " Name , -Created_At,,-", want: []DBOrdering{{Field: "name", Ascending: true}, {Field: "created_at"}}},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := ParseOrdering(tt.s); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOrdering() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderByClause(t *testing.T) {
	orderings := AllowedOrdering(ParseOrdering("-created_at,password,name"), "name", "created_at")
	if got, want := OrderByClause(orderings, "id"), "created_at DESC, name ASC"; got != want {
		t.Errorf("OrderByClause() = %q, want %q", got, want)
	}
	if got := OrderByClause(nil, "id DESC"); got != "id DESC" {
		t.Errorf("OrderByClause() = %q, want the default", got)
	}
}

func TestParseEmailTemplates(t *testing.T) {
	if err := ParseEmailTemplates(); err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}
	for _, name := range []string{"welcome", "password_reset"} {
		entry, ok := templates[name]
		if !ok || entry.text == nil || entry.html == nil {
			t.Errorf("template %q: got %+v, want both text and html", name, entry)
		}
	}
	if _, ok := templates["_base"]; ok {
		t.Error("the _base layout must not be a template of its own")
	}

	msg := EmailMessage{
		To:           []mail.Address{{Address: "ada@test.edu"}},
		TemplateName: "password_reset",
		TemplateData: map[string]string{"Name": "Ada", "UserID": "EMP001", "UID": "uid", "Token": "tok"},
	}
	if err := msg.Render("LMS", "http://lms.test"); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	for _, content := range []string{msg.TextContent, msg.HTMLContent} {
		if !strings.Contains(content, "http://lms.test/password-reset/uid/tok") || !strings.Contains(content, "The LMS team") {
			t.Errorf("Render() = %q, want the reset link inside the base layout", content)
		}
	}
}

func TestEmailMessage_Render(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/email/_base.txt":     {Data: []byte(`{{template "content" .}}-- {{.AppName}}`)},
		"templates/email/_base.gohtml":  {Data: []byte(`<p>{{template "content" .}}</p>`)},
		"templates/email/hello.txt":     {Data: []byte(`{{define "content"}}Hi {{.Data.Name}}, see {{.FrontendBaseURL}}{{end}}`)},
		"templates/email/hello.gohtml":  {Data: []byte(`{{define "content"}}Hi {{.Data.Name}}{{end}}`)},
		"templates/email/README.md":     {Data: []byte(`ignored`)},
		"templates/email/text_only.txt": {Data: []byte(`{{define "content"}}plain{{end}}`)},
	}
	cache, err := parseTemplates(fsys)
	if err != nil {
		t.Fatalf("parseTemplates() failed: %v", err)
	}
	if len(cache) != 2 {
		t.Fatalf("parseTemplates() parsed %d templates, want 2", len(cache))
	}

	if err = ParseEmailTemplates(); err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}
	orig := templates
	templates = cache
	defer func() { templates = orig }()

	msg := EmailMessage{
		To:           []mail.Address{{Address: "ada@test.edu"}},
		TemplateName: "hello",
		TemplateData: struct{ Name string }{Name: "<Ada>"},
	}
	if err = msg.Render("LMS", "http://lms.test"); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if want := "Hi <Ada>, see http://lms.test-- LMS"; msg.TextContent != want {
		t.Errorf("TextContent = %q, want %q", msg.TextContent, want)
	}
	if !strings.Contains(msg.HTMLContent, "Hi &lt;Ada&gt;") {
		t.Errorf("HTMLContent = %q, want escaped data", msg.HTMLContent)
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		t.Error("rendered message should be sendable")
	}

	missing := EmailMessage{TemplateName: "lol"}
	if err = missing.Render("LMS", ""); err == nil {
		t.Error("Render() of an unknown template should fail")
	}

	plain := EmailMessage{BodyStr: "raw"}
	if err = plain.Render("LMS", ""); err != nil || plain.TextContent != "raw" || plain.HTMLContent != "" {
		t.Errorf("Render() of a plain message = %q, %q, %v", plain.TextContent, plain.HTMLContent, err)
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  Ada@Test.EDU \n", true); got != "ada@test.edu" {
		t.Errorf("CleanString() = %q", got)
	}
	if got := StringOr("   ", "CSE"); got != "CSE" {
		t.Errorf("StringOr() = %q", got)
	}
	if got := StringOr(" ECE ", "CSE"); got != "ECE" {
		t.Errorf("StringOr() = %q", got)
	}
}
