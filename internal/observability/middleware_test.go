package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/hdmirx/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRequestMiddlewareTagsNodeAndRoute(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	RegisterMetrics()

	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf), "rx-mw"))
	r.Use(RequestMetricsMiddleware("rx-mw"))
	r.GET("/lanes/:lane", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/lanes/1", "/lanes/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := buf.String()
	if strings.Count(out, `"node":"rx-mw"`) != 3 {
		t.Fatalf("every request line should carry the node: %s", out)
	}
	if !strings.Contains(out, `"path":"/lanes/:lane"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected request log: %s", out)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("rx-mw", "GET", "/lanes/:lane", "200")); got != 2 {
		t.Fatalf("route requests: got=%v", got)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("rx-mw", "GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched requests: got=%v", got)
	}
}
