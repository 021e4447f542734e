package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/giftledger/internal/backup"
	"github.com/dukerupert/giftledger/internal/config"
	"github.com/dukerupert/giftledger/internal/guestscreen"
	"github.com/dukerupert/giftledger/internal/handler"
	"github.com/dukerupert/giftledger/internal/kv"
	"github.com/dukerupert/giftledger/internal/ledger"
	"github.com/dukerupert/giftledger/internal/middleware"
	"github.com/dukerupert/giftledger/internal/model"
	ws "github.com/dukerupert/giftledger/internal/websocket"
)

const (
	importLimit      = 10
	importWindow     = time.Minute
	rateLimitCleanup = 5 * time.Minute
	defaultMaxImport = 10 << 20
)

type Server struct {
	hub            *ws.Hub
	ledger         *ledger.Store
	publisher      *guestscreen.Publisher
	eventH         *handler.EventHandler
	giftH          *handler.GiftHandler
	backupH        *handler.BackupHandler
	guestH         *handler.GuestScreenHandler
	rateLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	maxImportBytes int64
	logger         *slog.Logger
	cancel         context.CancelFunc
}

func New(store kv.Store, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	l := ledger.New(store)

	publisher := guestscreen.NewPublisher(l, logger.With("component", "guestscreen"),
		guestscreen.StorageSink{Store: store},
		guestscreen.BroadcastSink{Hub: hub},
	)

	backupLogger := logger.With("component", "backup")
	reconciler := backup.NewReconciler(l, backupLogger)
	reconciler.OnImport(func(ctx context.Context, _ model.ImportResult) {
		if err := publisher.Refresh(ctx); err != nil {
			backupLogger.Error("refresh guest screen after import", "error", err)
		}
	})
	exporter := backup.NewExporter(l)
	backupMgr := backup.NewManager(cfg.Backup, exporter, reconciler, func(s backup.Status) {
		msg, err := ws.NewMessage("backup_status", s)
		if err != nil {
			backupLogger.Error("encode backup status", "error", err)
			return
		}
		hub.Broadcast(msg)
	}, backupLogger)

	maxImport := cfg.MaxImportBytes
	if maxImport <= 0 {
		maxImport = defaultMaxImport
	}

	return &Server{
		hub:            hub,
		ledger:         l,
		publisher:      publisher,
		eventH:         handler.NewEventHandler(l, logger.With("component", "event")),
		giftH:          handler.NewGiftHandler(l, publisher, logger.With("component", "gift")),
		backupH:        handler.NewBackupHandler(l, reconciler, exporter, backupMgr, backupLogger),
		guestH:         handler.NewGuestScreenHandler(publisher, logger.With("component", "guestscreen")),
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		maxImportBytes: maxImport,
		logger:         logger,
	}
}

// Start launches the background loops: scheduled remote backups and rate
// limiter cleanup.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.backupManager.Start(ctx)
	go s.rateLimiter.RunCleanup(ctx, rateLimitCleanup)
}

// Stop ends the background loops started by Start.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.backupManager.Stop()
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// BackupManager returns the remote backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/landing", s.eventH.Landing)
	mux.HandleFunc("GET /api/stats", s.eventH.Stats)

	// Events and gifts
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("GET /api/events/{id}/gifts", s.giftH.List)
	mux.HandleFunc("POST /api/events/{id}/gifts", s.giftH.Create)
	mux.HandleFunc("POST /api/events/{id}/gifts/{gift_id}/abolish", s.giftH.Abolish)
	mux.HandleFunc("POST /api/events/{id}/gifts/{gift_id}/restore", s.giftH.Restore)

	// Backup documents
	mux.Handle("POST /api/backup/import", s.importHandler())
	mux.HandleFunc("GET /api/backup/export", s.backupH.ExportAll)
	mux.HandleFunc("GET /api/events/{id}/export", s.backupH.ExportEvent)
	mux.HandleFunc("GET /api/events/{id}/export.xlsx", s.backupH.ExportWorkbook)

	// Remote backup
	mux.HandleFunc("GET /api/backup/remote/status", s.backupH.RemoteStatus)
	mux.HandleFunc("POST /api/backup/remote", s.backupH.RemoteRun)
	mux.HandleFunc("POST /api/backup/remote/restore", s.backupH.RemoteRestore)

	// Guest screen
	mux.HandleFunc("POST /api/guest-screen/{id}", s.guestH.Show)
	mux.HandleFunc("GET /api/guest-screen", s.guestH.Current)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.publisher.CurrentMessage))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) importHandler() http.Handler {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	var h http.Handler = http.HandlerFunc(s.backupH.Import)
	h = middleware.MaxBodySize(s.maxImportBytes)(h)
	return middleware.RateLimit(s.rateLimiter, keyFunc, importLimit, importWindow)(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
