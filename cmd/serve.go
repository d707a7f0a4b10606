package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resume-orchestrator/internal/model"
	"github.com/sells-group/resume-orchestrator/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP worker endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer e.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /worker/resume", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				SessionID        string `json:"session_id"`
				ForceTerminalize bool   `json:"force_terminalize"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.SessionID == "" {
				http.Error(w, `{"error":"session_id is required"}`, http.StatusBadRequest)
				return
			}

			msg, err := resumeMessage(r.Context(), e.Store, req.SessionID, "http_trigger")
			if err != nil {
				http.Error(w, `{"error":"control lookup failed"}`, http.StatusInternalServerError)
				return
			}
			msg.ForceTerminalize = req.ForceTerminalize

			res, err := e.Orch.Resume(r.Context(), msg)
			if err != nil {
				zap.L().Error("resume invocation failed",
					zap.String("session_id", req.SessionID),
					zap.Error(err))
				http.Error(w, `{"error":"resume failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		mux.HandleFunc("GET /sessions/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.PathValue("id")
			ctrl, err := e.Store.GetControl(r.Context(), sessionID)
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"control lookup failed"}`, http.StatusInternalServerError)
				return
			}
			// Observer view: status and telemetry only.
			writeJSON(w, http.StatusOK, map[string]any{
				"session_id":           ctrl.SessionID,
				"status":               ctrl.Status,
				"cycle_count":          ctrl.CycleCount,
				"missing_by_company":   ctrl.MissingByRecord,
				"last_backoff_reason":  ctrl.LastBackoffReason,
				"last_field_attempted": ctrl.LastFieldAttempted,
				"last_field_result":    ctrl.LastFieldResult,
				"next_allowed_run_at":  ctrl.NextAllowedRunAt,
			})
		})

		mux.HandleFunc("POST /sessions/{id}/force-terminalize", func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.PathValue("id")
			res, err := e.Orch.ForceTerminalize(r.Context(), sessionID, model.ReasonCycleCapExhausted)
			if err != nil {
				zap.L().Error("force terminalize failed",
					zap.String("session_id", sessionID),
					zap.Error(err))
				http.Error(w, `{"error":"force terminalize failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		mux.HandleFunc("POST /sessions/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.PathValue("id")
			err := e.Store.PutStop(r.Context(), &model.StopControl{
				ID:        model.StopDocID(sessionID),
				SessionID: sessionID,
				Stopped:   true,
				Reason:    "http_stop",
				CreatedAt: time.Now(),
			})
			if err != nil {
				http.Error(w, `{"error":"stop write failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":     "stopping",
				"session_id": sessionID,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
