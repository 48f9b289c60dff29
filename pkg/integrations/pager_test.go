package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPager_BodyNext(t *testing.T) {
	var queries []string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, `{"results":[{"name":"a"},{"name":"b"}],"next":"/v2/repositories/ns/?page=2"}`)
		case "2":
			fmt.Fprintf(w, `{"results":[{"name":"c"}],"next":"http://%s/v2/repositories/ns/?page=3"}`, r.Host)
		case "3":
			fmt.Fprint(w, `{"results":[{"name":"d"}],"next":null}`)
		default:
			t.Errorf("unexpected page %s", r.URL.RawQuery)
		}
	})

	p := c.Paginate("/v2/repositories/ns/", map[string][]string{"page_size": {"100"}}, BodyNextPages("results"), 0)
	items, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}

	var names []string
	for _, item := range items {
		names = append(names, String(item, "name", ""))
	}
	if fmt.Sprint(names) != "[a b c d]" {
		t.Errorf("names = %v, want [a b c d]", names)
	}
	if p.Pages() != 3 || !p.Done() {
		t.Errorf("Pages() = %d, Done() = %v", p.Pages(), p.Done())
	}
	if queries[0] != "page_size=100" {
		t.Errorf("first page query = %q", queries[0])
	}
	if queries[1] != "page=2" || queries[2] != "page=3" {
		t.Errorf("follow-up queries = %v, want query only on first page", queries[1:])
	}
}

func TestPager_LinkHeader(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/users/o/repos?page=2>; rel="next", <http://%s/users/o/repos?page=2>; rel="last"`, r.Host, r.Host))
			json.NewEncoder(w).Encode([]map[string]int{{"id": 1}, {"id": 2}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]int{{"id": 3}})
	})

	items, err := c.Paginate("/users/o/repos", nil, LinkHeaderPages, 0).All(context.Background())
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(items) != 3 || Int(items[2], "id", 0) != 3 {
		t.Errorf("items = %s", items)
	}
}

func TestPager_BasePathPrefix(t *testing.T) {
	var paths []string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Query().Get("page") != "2" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/api/v3/users/o/repos?page=2>; rel="next"`, r.Host))
			json.NewEncoder(w).Encode([]map[string]int{{"id": 1}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]int{{"id": 2}})
	}, func(o *Options) { o.BaseURL += "/api/v3" })

	items, err := c.Paginate("/users/o/repos", nil, LinkHeaderPages, 0).All(context.Background())
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %s, want 2", items)
	}
	if fmt.Sprint(paths) != "[/api/v3/users/o/repos /api/v3/users/o/repos]" {
		t.Errorf("requested paths = %v", paths)
	}
}

func TestPager_MaxPages(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"results":[{"n":%d}],"next":"/list?page=%d"}`, calls, calls+1)
	})

	p := c.Paginate("/list", nil, BodyNextPages("results"), 2)
	items, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(items) != 2 || calls != 2 {
		t.Errorf("items = %d, calls = %d, want 2 and 2", len(items), calls)
	}
	if p.Next(context.Background()) {
		t.Error("Next() after exhaustion returned true")
	}
}

func TestPager_Error(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"results":[{"n":1}],"next":"/list?page=2"}`)
	})

	p := c.Paginate("/list", nil, BodyNextPages("results"), 0)
	ctx := context.Background()
	if !p.Next(ctx) {
		t.Fatalf("first Next() = false, err = %v", p.Err())
	}
	if p.Next(ctx) {
		t.Fatal("second Next() = true, want false")
	}
	if !errors.Is(p.Err(), ErrNotFound) {
		t.Errorf("Err() = %v, want ErrNotFound", p.Err())
	}
}

func TestLinkHeaderPages_SingleObject(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":9}`)
	})
	items, err := c.Paginate("/thing", nil, LinkHeaderPages, 0).All(context.Background())
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(items) != 1 || Int(items[0], "id", 0) != 9 {
		t.Errorf("items = %s", items)
	}
}
