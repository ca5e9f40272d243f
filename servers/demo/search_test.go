package demo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{
			name:  "collapses whitespace",
			input: "hello    world\tagain",
			width: 80,
			want:  "hello world again",
		},
		{
			name:  "normalizes quotes and dashes",
			input: "“quoted” ‘text’ – dash — more",
			width: 80,
			want:  `"quoted" 'text' - dash - more`,
		},
		{
			name:  "separates paragraphs with blank lines",
			input: "first paragraph\n\n\nsecond paragraph\n",
			width: 80,
			want:  "first paragraph\n\nsecond paragraph",
		},
		{
			name:  "wraps long paragraphs",
			input: "aaa bbb ccc ddd",
			width: 10,
			want:  "aaa bbb\nccc ddd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.input, tt.width); got != tt.want {
				t.Errorf("cleanText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveResultURL(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		want    string
		wantErr bool
	}{
		{
			name: "redirect with uddg parameter",
			href: "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=abc",
			want: "https://example.com/page",
		},
		{
			name: "direct link",
			href: "https://example.com/direct",
			want: "https://example.com/direct",
		},
		{
			name:    "unparseable link",
			href:    "https://example.com/%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveResultURL(tt.href)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveResultURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveResultURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDuckDuckGoSearcherSearch(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if got := r.PostFormValue("q"); got != "gophers" {
			http.Error(w, fmt.Sprintf("unexpected query %q", got), http.StatusBadRequest)
			return
		}
		href := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(ts.URL+"/page") + "&amp;rut=abc"
		fmt.Fprintf(w, `<html><body><a class="result__a" href="%s">Result</a></body></html>`, href)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><script>ignored()</script><p>Gophers   are rodents.</p><style>.x{}</style></body></html>`)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	searcher := NewDuckDuckGoSearcher(ts.Client())
	searcher.endpoint = ts.URL + "/html/"

	got, err := searcher.Search(context.Background(), "gophers")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got.URL != ts.URL+"/page" {
		t.Errorf("Search() url = %q, want %q", got.URL, ts.URL+"/page")
	}
	if !strings.Contains(got.Text, "Gophers are rodents.") {
		t.Errorf("Search() text = %q, want the cleaned page text", got.Text)
	}
	if strings.Contains(got.Text, "ignored") {
		t.Errorf("Search() text = %q, want scripts stripped", got.Text)
	}
}

func TestDuckDuckGoSearcherSearch_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>no results</p></body></html>`)
	}))
	defer ts.Close()

	searcher := NewDuckDuckGoSearcher(ts.Client())
	searcher.endpoint = ts.URL

	got, err := searcher.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.URL != "" || got.Text != "" {
		t.Errorf("Search() = %+v, want a zero result", got)
	}
}

func TestDuckDuckGoSearcherSearch_PageFetchFails(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/html/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><a class="result__a" href="%s/missing">Result</a></body></html>`, ts.URL)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	searcher := NewDuckDuckGoSearcher(ts.Client())
	searcher.endpoint = ts.URL + "/html/"

	got, err := searcher.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.URL != ts.URL+"/missing" {
		t.Errorf("Search() url = %q, want %q", got.URL, ts.URL+"/missing")
	}
	if got.Text != "" {
		t.Errorf("Search() text = %q, want empty after a failed fetch", got.Text)
	}
}
