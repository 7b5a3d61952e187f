// Command gatesimd is the admission gate daemon.
//
// Architecture Overview:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Client    │────▶│  HTTP API   │────▶│  Gatebus    │
//	│ (gatectl)   │     │  (/admit)   │     │ (Ring Buf)  │
//	└─────────────┘     └─────────────┘     └──────┬──────┘
//	                                               │
//	                                               ▼
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│  Snapshot   │◀────│  Plasma     │◀────│  Gate       │
//	│  Writer     │     │  Cells      │     │  Processor  │
//	└─────────────┘     └──────┬──────┘     └─────────────┘
//	                           │
//	                           ▼
//	                    ┌─────────────┐
//	                    │  Decision   │
//	                    │  Log        │
//	                    └─────────────┘
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/rishav/admission-gate/internal/command"
	"github.com/rishav/admission-gate/internal/gatebus"
	"github.com/rishav/admission-gate/internal/plasma"
	"github.com/rishav/admission-gate/internal/resonator"
	"github.com/rishav/admission-gate/internal/telemetry"
	"github.com/rishav/admission-gate/internal/thyristor"
)

var families = []command.Family{
	command.FamilyOrbital,
	command.FamilyGroundStation,
	command.FamilyTarPit,
	command.FamilySilent,
}

func defaultResonator(f command.Family) resonator.Resonator {
	switch f {
	case command.FamilyOrbital:
		return resonator.Orbital{}
	case command.FamilyGroundStation:
		return resonator.GroundStation{}
	case command.FamilyTarPit:
		return resonator.TarPit{}
	default:
		return resonator.Silent{}
	}
}

// Server is the admission gate daemon.
//
// Architecture: LMAX Disruptor pattern adapted to admission decisions
//   - HTTP handlers (multi-threaded) submit to ring buffer using CAS operations
//   - Single gate processor consumes from ring buffer and resonates each cell
type Server struct {
	cells        map[command.Family]*plasma.PlasmaState
	thresholds   thyristor.ThresholdConfig
	decisionLog  *telemetry.DecisionLog
	snapshots    *telemetry.SnapshotWriter
	anodeTicker  *time.Ticker
	anodeDone    chan struct{}

	ringBuffer *gatebus.RingBuffer
	sequencer  *gatebus.Sequencer
	processor  *gatebus.GateProcessor

	httpServer *http.Server
}

// Config holds daemon configuration.
type Config struct {
	Port             int
	DecisionLogPath  string
	SnapshotPath     string
	SyncMode         bool
	Thresholds       thyristor.ThresholdConfig
	AnodeDropPeriod  time.Duration
	SnapshotPeriod   time.Duration
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		DecisionLogPath: "decisions.log",
		SnapshotPath:    "snapshot.json",
		SyncMode:        false,
		Thresholds:      thyristor.Default(),
		AnodeDropPeriod: time.Second,
		SnapshotPeriod:  5 * time.Second,
	}
}

// NewServer creates a new server instance.
func NewServer(config Config) (*Server, error) {
	decisionLog, err := telemetry.NewDecisionLog(telemetry.DecisionLogConfig{
		Path:     config.DecisionLogPath,
		SyncMode: config.SyncMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decision log: %w", err)
	}

	cells := make(map[command.Family]*plasma.PlasmaState, len(families))
	resonators := make(map[command.Family]resonator.Resonator, len(families))
	for _, f := range families {
		cells[f] = plasma.New()
		resonators[f] = defaultResonator(f)
	}

	snapshots := telemetry.NewSnapshotWriter(config.SnapshotPath, config.SnapshotPeriod, cells)

	ringBuffer := gatebus.NewRingBuffer(gatebus.DefaultConfig())
	sequencer := gatebus.NewSequencer(ringBuffer)
	processor := gatebus.NewGateProcessor(ringBuffer, gatebus.Cells{
		States:     cells,
		Resonators: resonators,
		Thresholds: config.Thresholds,
	}, decisionLog)

	server := &Server{
		cells:       cells,
		thresholds:  config.Thresholds,
		decisionLog: decisionLog,
		snapshots:   snapshots,
		anodeTicker: time.NewTicker(config.AnodeDropPeriod),
		anodeDone:   make(chan struct{}),
		ringBuffer:  ringBuffer,
		sequencer:   sequencer,
		processor:   processor,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/admit", server.handleAdmit)
	mux.HandleFunc("/snapshot", server.handleSnapshot)
	mux.HandleFunc("/stats", server.handleStats)
	mux.HandleFunc("/health", server.handleHealth)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server, nil
}

// Start starts the server.
func (s *Server) Start() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("starting admission gate daemon")

	s.processor.Start()
	s.snapshots.Start()
	go s.reapAnodeDrops()

	return s.httpServer.ListenAndServe()
}

// reapAnodeDrops periodically tears down latched cells that have fallen
// into entropy drought.
func (s *Server) reapAnodeDrops() {
	for {
		select {
		case <-s.anodeTicker.C:
			for family, cell := range s.cells {
				if cell.CheckAnodeDrop(s.thresholds) {
					logrus.WithField("family", family).Info("anode drop")
					s.decisionLog.Append(&telemetry.AnodeDropEvent{
						Event:   telemetry.Event{Timestamp: command.Now(), Type: telemetry.EventTypeAnodeDrop},
						Family:  family.String(),
						Entropy: cell.Entropy(),
					})
				}
			}
		case <-s.anodeDone:
			return
		}
	}
}

// Shutdown gracefully shuts down the server.
//
// Shutdown order is critical to prevent data loss:
//  1. Stop accepting new HTTP requests
//  2. Drain ring buffer (process all pending admission requests)
//  3. Flush decision log and snapshot to disk
//  4. Close all resources
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down admission gate daemon")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	s.anodeTicker.Stop()
	close(s.anodeDone)

	s.processor.Shutdown()
	s.snapshots.Shutdown()

	return s.decisionLog.Close()
}

// AdmitRequest is a single admission request submitted by a client.
type AdmitRequest struct {
	Family    string `json:"family"`
	LineageID uint64 `json:"lineage_id"`
	Tick      uint64 `json:"tick"`
	AngleHint uint16 `json:"angle_hint"`
	Payload   []byte `json:"payload,omitempty"`
}

// AdmitResponse is the gate's decision.
type AdmitResponse struct {
	Admitted     bool    `json:"admitted"`
	GateState    string  `json:"gate_state"`
	RingStrength float32 `json:"ring_strength"`
	Error        string  `json:"error,omitempty"`
}

func parseFamily(s string) (command.Family, bool) {
	switch s {
	case "ORBITAL", "orbital":
		return command.FamilyOrbital, true
	case "GROUND_STATION", "ground_station":
		return command.FamilyGroundStation, true
	case "TAR_PIT", "tar_pit":
		return command.FamilyTarPit, true
	case "SILENT", "silent":
		return command.FamilySilent, true
	default:
		return 0, false
	}
}

func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdmitResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	family, ok := parseFamily(req.Family)
	if !ok {
		writeJSON(w, http.StatusBadRequest, AdmitResponse{Error: "invalid family"})
		return
	}

	cmd := &command.Command{
		ID:        req.Tick,
		LineageID: req.LineageID,
		Tick:      req.Tick,
		Timestamp: command.Now(),
		Family:    family,
		Payload:   req.Payload,
		AngleHint: req.AngleHint,
	}

	responseCh := make(chan *gatebus.CommandResponse, 1)
	request := &gatebus.CommandRequest{Command: cmd, Family: family}

	seq, err := s.sequencer.Next()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, AdmitResponse{Error: "server busy, please retry"})
		return
	}

	s.sequencer.Publish(seq, request, responseCh)

	var response *gatebus.CommandResponse
	select {
	case response = <-responseCh:
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, AdmitResponse{Error: "processing timeout"})
		return
	}

	if response.Error != nil {
		writeJSON(w, http.StatusBadRequest, AdmitResponse{Error: response.Error.Error()})
		return
	}

	writeJSON(w, http.StatusOK, AdmitResponse{
		Admitted:     response.Admitted,
		GateState:    response.GateState,
		RingStrength: response.RingStrength,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	type cellView struct {
		Family string                `json:"family"`
		State  plasma.PlasmaSnapshot `json:"state"`
	}

	views := make([]cellView, 0, len(s.cells))
	for family, cell := range s.cells {
		views = append(views, cellView{Family: family.String(), State: cell.Snapshot()})
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decision_log_seq": s.decisionLog.GetLastSequence(),
		"cell_count":       len(s.cells),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func main() {
	port := pflag.Int("port", 8080, "HTTP port")
	decisionLogPath := pflag.String("decision-log", "decisions.log", "path to decision log file")
	snapshotPath := pflag.String("snapshot-path", "snapshot.json", "path to periodic cell snapshot file")
	syncMode := pflag.Bool("sync", false, "enable fsync-per-write for the decision log (slower but durable)")
	preset := pflag.String("preset", "default", "threshold preset: default, strict, or permissive")
	thresholdsFile := pflag.String("thresholds-file", "", "path to a JSONC threshold override file (overrides --preset)")
	pflag.Parse()

	config := DefaultConfig()
	config.Port = *port
	config.DecisionLogPath = *decisionLogPath
	config.SnapshotPath = *snapshotPath
	config.SyncMode = *syncMode

	if *thresholdsFile != "" {
		cfg, err := loadThresholds(*thresholdsFile)
		if err != nil {
			logrus.WithError(err).Fatal("failed to load thresholds file")
		}
		config.Thresholds = cfg
	} else if *preset != "default" {
		cfg, ok := presetByName(*preset)
		if !ok {
			logrus.WithField("preset", *preset).Fatal("unknown threshold preset")
		}
		config.Thresholds = cfg
	}

	server, err := NewServer(config)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logrus.Info("received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("shutdown error")
		}
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("server error")
	}

	logrus.Info("server stopped")
}
