package logsvc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/user"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	conf := core.NewTestConfig()
	conf.Debug = debug
	buf := new(bytes.Buffer)
	l := NewRollbarLogger(buf, "api", conf)
	l.Enable(false)
	return l, buf
}

func TestRollbarLogger(t *testing.T) {
	l, buf := newTestLogger(false)
	usr := user.CurrentUser{ID: "u1", Name: "Ana", Email: "ana@example.com"}

	l.Warn("removing trailing blank page", errors.New("boom"), usr, map[string]interface{}{"page": 3})
	l.Debug("hidden")

	out := buf.String()
	for _, want := range []string{"level=warning", `msg="removing trailing blank page"`, "error=boom", "user=u1", "page=3", "logger=api"} {
		if !strings.Contains(out, want) {
			t.Errorf("failed! %q not in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("failed! debug message logged outside debug mode")
	}

	l, buf = newTestLogger(true)
	l.Debug("shown")
	if !strings.Contains(buf.String(), "level=debug") {
		t.Errorf("failed! debug message not logged in debug mode: %q", buf.String())
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newTestLogger(false)
	err := errors.New("boom")
	first := user.CurrentUser{ID: "u1"}
	second := user.CurrentUser{ID: "u2"}

	got := l.prepare("msg", []interface{}{err, first, second})
	if len(got) != 2 || got[0] != "msg" || got[1] != err {
		t.Errorf("prepare() = %v, want [msg %v]", got, err)
	}
}
