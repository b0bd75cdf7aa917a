package api

import (
	"net/http"

	"github.com/AlexZinkM/seedvault/internal/handler"
	"github.com/AlexZinkM/seedvault/manager"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// SetupRouter sets up router with handlers
func SetupRouter(m *manager.Manager, log *zap.Logger) http.Handler {
	walletHandler := handler.NewWalletHandler(m, log)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// Wallet lifecycle
	mux.HandleFunc("/wallet/create", walletHandler.Create)
	mux.HandleFunc("/wallet/restore", walletHandler.Restore)
	mux.HandleFunc("/wallet/unlock", walletHandler.Unlock)
	mux.HandleFunc("/wallet/lock", walletHandler.Lock)
	mux.HandleFunc("/session/touch", walletHandler.Touch)

	// Accounts
	mux.HandleFunc("/accounts", walletHandler.Accounts)
	mux.HandleFunc("/accounts/create", walletHandler.CreateAccount)
	mux.HandleFunc("/accounts/switch", walletHandler.Switch)
	mux.HandleFunc("/accounts/rename", walletHandler.Rename)
	mux.HandleFunc("/accounts/icon", walletHandler.Icon)
	mux.HandleFunc("/accounts/delete", walletHandler.Delete)
	mux.HandleFunc("/accounts/qr", walletHandler.QR)
	mux.HandleFunc("/accounts/balance", walletHandler.Balance)

	// Signing
	mux.HandleFunc("/sign", walletHandler.Sign)
	mux.HandleFunc("/verify", walletHandler.Verify)
	mux.HandleFunc("/pay", walletHandler.Pay)

	return mux
}
