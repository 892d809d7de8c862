package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fakeHH is a fake api.hh.ru.
type fakeHH struct {
	submissions atomic.Int32
	mu          sync.Mutex
	searchQuery url.Values
	tokenForm   url.Values
}

func (f *fakeHH) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","first_name":"Anna","last_name":"K","is_applicant":true}`))
	})
	mux.HandleFunc("GET /resumes/mine", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"R1","title":"Go developer"}],"found":1,"pages":1}`))
	})
	mux.HandleFunc("GET /vacancies", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.searchQuery = r.URL.Query()
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"items":[{"id":"1","name":"Go"},{"id":"4","name":"Go too"}],"found":2,"pages":1,"page":0,"per_page":20}`))
	})
	mux.HandleFunc("GET /vacancies/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1", "4":
			fmt.Fprintf(w, `{"id":%q,"name":"Go","relations":[]}`, r.PathValue("id"))
		case "2":
			_, _ = w.Write([]byte(`{"id":"2","name":"Go","relations":["got_response"]}`))
		case "3":
			_, _ = w.Write([]byte(`{"id":"3","name":"Go","archived":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"type":"not_found"}]}`))
		}
	})
	mux.HandleFunc("GET /vacancies/{id}/resumes", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"R1"}]}`))
	})
	mux.HandleFunc("POST /negotiations", func(w http.ResponseWriter, _ *http.Request) {
		n := f.submissions.Add(1)
		w.Header().Set("Location", fmt.Sprintf("/negotiations/neg-%d", n))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /negotiations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"n1","state":{"id":"response","name":"Response"},` +
			`"vacancy":{"id":"1","name":"Go developer"}}],"found":1,"pages":1,"page":0,"per_page":20}`))
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.tokenForm = r.PostForm
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"bearer","expires_in":3600}`))
	})
	return mux
}

func (f *fakeHH) lastSearch() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchQuery
}

func (f *fakeHH) lastTokenForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenForm
}

// testEnv points the CLI at a fake upstream and a temporary state directory.
type testEnv struct {
	hh           *fakeHH
	dir          string
	configPath   string
	settingsPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := &fakeHH{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	env := &testEnv{
		hh:           fake,
		dir:          dir,
		configPath:   filepath.Join(dir, "config.json"),
		settingsPath: filepath.Join(dir, "settings.json"),
	}

	t.Setenv("HH_API_BASE", ts.URL)
	t.Setenv("HH_ACCESS_TOKEN", "tok")
	t.Setenv("HH_REFRESH_TOKEN", "")
	t.Setenv("HH_CLIENT_ID", "")
	t.Setenv("HH_CLIENT_SECRET", "")
	t.Setenv("HH_REQUESTS_PER_SECOND", "0")
	t.Setenv("HHCLI_SETTINGS", env.settingsPath)
	t.Setenv("HHCLI_LOG_LEVEL", "error")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("API_JWT_SECRET", "")
	return env
}

// run executes the root command with --config pointing at the test config.
func (e *testEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
