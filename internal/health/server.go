// Package health exposes a minimal liveness endpoint for container
// orchestration probes.
package health

import (
	"context"
	"log"
	"net/http"
	"time"

	telegoapi "modrelay-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const checkTimeout = 10 * time.Second

// Pinger is the database reachability probe. *mongo.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Server answers GET /health with 200 when the bot API and the database are
// both reachable, and 500 otherwise.
type Server struct {
	bot       telegoapi.BotAPI
	db        Pinger
	channelID int64
	addr      string
}

// NewServer creates a health server listening on addr.
func NewServer(addr string, bot telegoapi.BotAPI, db Pinger, channelID int64) *Server {
	return &Server{
		bot:       bot,
		db:        db,
		channelID: channelID,
		addr:      addr,
	}
}

// Run serves the health endpoint until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Health endpoint listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	if err := s.check(ctx); err != nil {
		log.Printf("Health check failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("ERROR"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) check(ctx context.Context) error {
	if _, err := s.bot.GetMe(ctx); err != nil {
		return err
	}
	if _, err := s.bot.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(s.channelID)}); err != nil {
		return err
	}
	return s.db.Ping(ctx, readpref.Primary())
}
