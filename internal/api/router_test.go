package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlexZinkM/seedvault/internal/account"
	"github.com/AlexZinkM/seedvault/internal/auth"
	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/store"
	"github.com/AlexZinkM/seedvault/manager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	kv := store.NewMemory()
	salt := crypto.NewInstallationSalt(kv)
	vault, err := crypto.NewVault(crypto.MinIterations, salt)
	require.NoError(t, err)

	m, err := manager.New(manager.Deps{
		Store:    kv,
		Vault:    vault,
		Salt:     salt,
		Registry: account.NewRegistry(kv, account.SchemeHKDF, zap.NewNop()),
		Guard:    auth.NewGuard(kv, auth.Options{SessionTTL: time.Minute}, nil),
	})
	require.NoError(t, err)
	return SetupRouter(m, zap.NewNop())
}

func TestRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/accounts", http.StatusNotFound},
		{http.MethodGet, "/accounts/qr", http.StatusNotFound},
		{http.MethodGet, "/wallet/unlock", http.StatusMethodNotAllowed},
		{http.MethodPost, "/wallet/lock", http.StatusUnauthorized},
		{http.MethodPost, "/session/touch", http.StatusUnauthorized},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMetricsExposeCounters(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seedvault_lockouts_total")
}
