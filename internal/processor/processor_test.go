package processor_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/processor"
	"github.com/Gunvolt24/queue-consumer/pkg/ctxmeta"
)

type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

func TestLog_AlwaysTrue(t *testing.T) {
	res, err := processor.NewLog(nopLogger{}).Process(context.Background(), domain.NewMessage("m", "b", nil))
	require.NoError(t, err)
	require.Equal(t, true, res)
}

func TestWebhook_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   any
		errIs  error
	}{
		{"success", http.StatusOK, `{"result":true}`, true, nil},
		{"handled failure", http.StatusOK, `{"result":false}`, false, nil},
		{"non-boolean passes through", http.StatusOK, `{"result":"true"}`, "true", nil},
		{"missing result", http.StatusOK, `{}`, nil, nil},
		{"server error", http.StatusInternalServerError, `oops`, nil, processor.ErrWebhookStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			res, err := processor.NewWebhook(srv.URL, time.Second).Process(context.Background(), domain.NewMessage("m-1", "payload", nil))
			if tt.errIs != nil {
				require.True(t, errors.Is(err, tt.errIs), "want %v, got %v", tt.errIs, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, res)
		})
	}
}

func TestWebhook_SendsBodyAndHeaders(t *testing.T) {
	var (
		gotBody string
		gotID   string
		gotReq  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotID = r.Header.Get("X-Message-ID")
		gotReq = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"result":true}`)
	}))
	defer srv.Close()

	ctx := ctxmeta.WithRequestID(context.Background(), "req-1")
	_, err := processor.NewWebhook(srv.URL, time.Second).Process(ctx, domain.NewMessage("m-1", "payload", nil))
	require.NoError(t, err)
	require.Equal(t, "payload", gotBody)
	require.Equal(t, "m-1", gotID)
	require.Equal(t, "req-1", gotReq)
}

func TestWebhook_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := processor.NewWebhook(srv.URL, time.Second).Process(context.Background(), domain.NewMessage("m-1", "p", nil))
	require.Error(t, err)
}
