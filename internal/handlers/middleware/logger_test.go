package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type logCall struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	calls []logCall
}

func (l *recordingLogger) Info(msg string, v ...any) {
	l.calls = append(l.calls, logCall{level: "info", msg: msg, args: v})
}

func (l *recordingLogger) Warn(msg string, v ...any) {
	l.calls = append(l.calls, logCall{level: "warn", msg: msg, args: v})
}

func TestLoggerMiddleware(t *testing.T) {
	serve := func(t *testing.T, status int) *recordingLogger {
		logger := &recordingLogger{}

		mux := http.NewServeMux()
		mux.HandleFunc("GET /test/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, err := w.Write([]byte("hi"))
			require.NoError(t, err, "should write response")
		})

		srv := httptest.NewServer(LoggerMiddleware(logger)(mux))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test/42?secret=1")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, status, resp.StatusCode, "not expected status. Resp: %s", string(body))
		require.Equal(t, "hi", string(body), "should return 'hi' in response")

		return logger
	}

	t.Run("log request", func(t *testing.T) {
		logger := serve(t, http.StatusTeapot)

		require.Len(t, logger.calls, 1, "logger should be called once")
		call := logger.calls[0]
		require.Equal(t, "info", call.level)
		require.Equal(t, "got HTTP request", call.msg, "logger should log 'got HTTP request'")
		require.Len(t, call.args, 12, "logger should log 12 fields")
		require.Equal(t, "method", call.args[0])
		require.Equal(t, "GET", call.args[1])
		require.Equal(t, "uri", call.args[2])
		require.Equal(t, "/test/42", call.args[3], "query string must not be logged")
		require.Equal(t, "route", call.args[4])
		require.Equal(t, "GET /test/{id}", call.args[5])
		require.Equal(t, "duration", call.args[6])
		require.NotEmpty(t, call.args[7], "duration should not be empty")
		require.Equal(t, "status", call.args[8])
		require.Equal(t, http.StatusTeapot, call.args[9])
		require.Equal(t, "size", call.args[10])
		require.Equal(t, 2, call.args[11], "size should be 2 (length of 'hi')")
	})

	t.Run("server errors logged with warn", func(t *testing.T) {
		logger := serve(t, http.StatusInternalServerError)

		require.Len(t, logger.calls, 1)
		require.Equal(t, "warn", logger.calls[0].level)
		require.Equal(t, http.StatusInternalServerError, logger.calls[0].args[9])
	})
}
