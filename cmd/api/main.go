package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"call-decision-go/internal/actionable"
	"call-decision-go/internal/aggregator"
	"call-decision-go/internal/classifier"
	"call-decision-go/internal/dataset"
	"call-decision-go/internal/engine"
	"call-decision-go/internal/logger"
	"call-decision-go/internal/metrics"
	"call-decision-go/internal/ticketing"
	"call-decision-go/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "call-decision-go").Info("starting service")

	reasoner := buildReasoner(context.Background(), log)
	timeoutSec, _ := strconv.Atoi(envOr("REASONING_TIMEOUT_SEC", "40"))
	eng := engine.New(reasoner, time.Duration(timeoutSec)*time.Second)

	var applier *ticketing.Applier
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to ticketing database")
		}
		applier = ticketing.NewApplier(pool, ticketing.NewPostgresStore())
		log.Info("ticketing applier enabled")
	} else {
		log.Warn("DATABASE_URL not set, /analyze?apply=true disabled")
	}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	mux.Handle("/metrics", metrics.Handler())

	// analyze one conversation
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var raw types.RawTranscript
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			reqLog.WithError(err).Warn("bad request body")
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		reqLog = reqLog.WithField("conversation_id", raw.ConversationID)

		start := time.Now()
		decision, err := eng.AnalyzeCall(r.Context(), raw.Turns, raw.ConversationID)
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			status, outcome := classifyError(err)
			metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
			reqLog.WithError(err).Warn("analysis failed")
			writeError(w, status, err.Error())
			return
		}
		metrics.AnalysesTotal.WithLabelValues("composed").Inc()
		metrics.DecisionsTotal.WithLabelValues(decision.IncidentAnalysis.PrimaryIncident.Type).Inc()
		if decision.IncidentAnalysis.FollowUpInfo.IsFollowUp {
			metrics.FollowUpsTotal.Inc()
		}

		resp := map[string]any{"decision": decision}
		if r.URL.Query().Get("apply") == "true" {
			if applier == nil {
				writeError(w, http.StatusServiceUnavailable, "ticketing database not configured")
				return
			}
			applied, err := applier.Apply(r.Context(), decision)
			if err != nil {
				reqLog.WithError(err).Error("applier failed")
				writeError(w, http.StatusBadGateway, "failed to apply decision")
				return
			}
			resp["applied"] = applied
		}

		writeJSON(w, http.StatusOK, resp)
	})

	// demo: batch-analyze the first rows of the configured call export
	mux.HandleFunc("/demo", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "demo")
		exportPath := envOr("EXPORT_PATH", "call_export.xlsx")
		records, err := dataset.Load(exportPath)
		if err != nil {
			reqLog.WithError(err).Error("export load error")
			writeError(w, http.StatusInternalServerError, "export load error")
			return
		}
		limit := 5
		if len(records) < limit {
			limit = len(records)
		}
		var decisions []types.CallDecision
		for _, rec := range records[:limit] {
			recLog := reqLog.WithField("conversation_id", rec.ConversationID)
			decision, err := eng.AnalyzeCall(r.Context(), rec.Turns, rec.ConversationID)
			if err != nil {
				recLog.WithError(err).Warn("demo analysis failed, skipping conversation")
				continue
			}
			decisions = append(decisions, decision)
		}
		insight := aggregator.Aggregate(decisions)
		writeJSON(w, http.StatusOK, map[string]any{
			"export_summary": dataset.Summarize(records),
			"decisions":      decisions,
			"insight":        insight,
			"action_card":    actionable.Generate(insight),
		})
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

// buildReasoner wires the classification strategy from env. The rules
// reasoner always backs the LLM providers so a provider outage degrades to
// deterministic low-confidence answers instead of hard failures.
func buildReasoner(ctx context.Context, log *logger.Logger) classifier.Reasoner {
	switch envOr("REASONER", "gateway") {
	case "rules":
		log.Info("using rules reasoner (offline mode)")
		return classifier.NewRulesReasoner()
	case "gemini":
		gemini, err := classifier.NewGeminiReasoner(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.WithError(err).Warn("gemini not configured, falling back to rules reasoner")
			return classifier.NewRulesReasoner()
		}
		return classifier.NewFallbackReasoner(gemini, classifier.NewRulesReasoner())
	default:
		gateway, err := classifier.NewGatewayReasoner(
			os.Getenv("LLM_GATEWAY_URL"),
			os.Getenv("LLM_API_KEY"),
			envOr("LLM_MODEL", "gpt-4o-mini"),
		)
		if err != nil {
			log.WithError(err).Warn("llm gateway not configured, falling back to rules reasoner")
			return classifier.NewRulesReasoner()
		}
		return classifier.NewFallbackReasoner(gateway, classifier.NewRulesReasoner())
	}
}

// classifyError maps the engine's error taxonomy onto HTTP statuses and a
// metrics outcome label.
func classifyError(err error) (int, string) {
	var input *engine.InputError
	if errors.As(err, &input) {
		return http.StatusBadRequest, "input_error"
	}
	var taxonomy *classifier.UnknownTaxonomyError
	if errors.As(err, &taxonomy) {
		return http.StatusUnprocessableEntity, "unknown_taxonomy"
	}
	var unavailable *classifier.ReasoningUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusBadGateway, "reasoning_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
