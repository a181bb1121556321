// api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"texhub/internal/config"
	"texhub/internal/domain"
	"texhub/internal/infrastructure"
	"texhub/internal/messaging"
	"texhub/internal/repository"
	"texhub/pkg/planning"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	router       *mux.Router
	planRepo     repository.PlanRepository
	machineRepo  repository.MachineRepository
	snapshotRepo repository.SnapshotRepository
	msgClient    messaging.MessageClient
	engine       *planning.Engine
	catalog      planning.Catalog
	config       *config.Config
	validator    *validator.Validate
	server       *http.Server
}

func NewServer(planRepo repository.PlanRepository, machineRepo repository.MachineRepository,
	snapshotRepo repository.SnapshotRepository, msgClient messaging.MessageClient,
	engine *planning.Engine, catalog planning.Catalog, cfg *config.Config) *Server {

	s := &Server{
		router:       mux.NewRouter(),
		planRepo:     planRepo,
		machineRepo:  machineRepo,
		snapshotRepo: snapshotRepo,
		msgClient:    msgClient,
		engine:       engine,
		catalog:      catalog,
		config:       cfg,
		validator:    validator.New(),
	}

	s.setupRoutes()
	s.setupMiddleware()

	return s
}

func (s *Server) setupRoutes() {
	// API v1
	apiRouter := s.router.PathPrefix("/api/v1").Subrouter()

	// Plans endpoints
	apiRouter.HandleFunc("/plans", s.createPlan).Methods("POST")
	apiRouter.HandleFunc("/plans", s.listPlans).Methods("GET")
	apiRouter.HandleFunc("/plans/stats", s.planStats).Methods("GET")
	apiRouter.HandleFunc("/plans/{id}", s.getPlan).Methods("GET")
	apiRouter.HandleFunc("/plans/{id}", s.updatePlan).Methods("PUT")
	apiRouter.HandleFunc("/plans/{id}", s.deletePlan).Methods("DELETE")
	apiRouter.HandleFunc("/plans/{id}/chemicals/import", s.importStockSheet).Methods("POST")
	apiRouter.HandleFunc("/plans/{id}/history", s.planHistory).Methods("GET")

	// Machines endpoints
	apiRouter.HandleFunc("/machines", s.listMachines).Methods("GET")
	apiRouter.HandleFunc("/machines", s.createMachine).Methods("POST")
	apiRouter.HandleFunc("/machines/occupancy", s.machineOccupancy).Methods("GET")

	// Health endpoint
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")

	// Swagger/OpenAPI docs
	s.router.HandleFunc("/docs", s.apiDocs).Methods("GET")

	// Default 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.notFoundHandler)
}

func (s *Server) setupMiddleware() {
	// CORS middleware
	s.router.Use(s.corsMiddleware)

	// Logging middleware
	s.router.Use(s.loggingMiddleware)

	// Recovery middleware
	s.router.Use(s.recoveryMiddleware)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Пропускаем health checks из логов
		if r.URL.Path != "/health" {
			log.Printf("Request: %s %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		}

		next.ServeHTTP(w, r)

		if r.URL.Path != "/health" {
			log.Printf("Response: %s %s completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v", err)
				s.respondWithError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Handlers
func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan := domain.NewDyeingPlan(time.Now(), req.UserID, req.CreatedBy)
	plan.PlanName = req.PlanName
	plan.CustomerName = req.CustomerName
	plan.OrderNumber = req.OrderNumber

	// Нормализуем производные поля перед записью
	*plan = s.engine.Recompute(*plan)

	ctx := r.Context()
	if err := s.planRepo.CreatePlan(ctx, plan); err != nil {
		log.Printf("Failed to create plan: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	// Отправляем событие на пересчет; создание плана от этого не зависит
	if err := s.msgClient.PublishPlan(ctx, plan.ID); err != nil {
		log.Printf("Failed to publish plan event: %v", err)
	}

	s.respondWithJSON(w, http.StatusCreated, plan)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	planID := vars["id"]

	plan, err := s.planRepo.GetPlan(r.Context(), planID)
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, "Plan not found")
		return
	}

	s.respondWithJSON(w, http.StatusOK, plan)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	// Получаем параметры запроса
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := parseInt(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	plans, err := s.planRepo.ListPlans(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list plans: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch plans")
		return
	}

	status := r.URL.Query().Get("status")
	priority := r.URL.Query().Get("priority")
	filtered := plans[:0]
	for _, plan := range plans {
		if status != "" && status != "all" && string(plan.Status) != status {
			continue
		}
		if priority != "" && priority != "all" && string(plan.Priority) != priority {
			continue
		}
		filtered = append(filtered, plan)
	}

	response := map[string]any{
		"plans": filtered,
		"count": len(filtered),
		"limit": limit,
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) planStats(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planRepo.ListPlans(r.Context(), 100)
	if err != nil {
		log.Printf("Failed to list plans: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch plans")
		return
	}

	byStatus := map[string]int{}
	byPriority := map[string]int{}
	totalCost := 0.0
	totalDuration := 0.0
	for _, plan := range plans {
		byStatus[string(plan.Status)]++
		byPriority[string(plan.Priority)]++
		totalCost += plan.EstimatedCost
		totalDuration += plan.EstimatedDuration
	}

	avgDuration := 0.0
	if len(plans) > 0 {
		avgDuration = totalDuration / float64(len(plans))
	}

	response := map[string]any{
		"total_plans":          len(plans),
		"active_plans":         byStatus[string(domain.PlanStatusInProgress)],
		"completed_plans":      byStatus[string(domain.PlanStatusCompleted)],
		"urgent_plans":         byPriority[string(domain.PriorityUrgent)],
		"by_status":            byStatus,
		"by_priority":          byPriority,
		"total_estimated_cost": totalCost,
		"avg_duration":         avgDuration,
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) updatePlan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	planID := vars["id"]

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Запрещаем обновление некоторых полей
	delete(updates, "id")
	delete(updates, "created_at")
	delete(updates, "created_by")
	delete(updates, "user_id")
	delete(updates, "estimated_cost")
	delete(updates, "total_water")
	delete(updates, "scheduled_end_time")

	ctx := r.Context()
	if err := s.planRepo.UpdatePlan(ctx, planID, updates); err != nil {
		log.Printf("Failed to update plan: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	// Пересчитываем производные поля синхронно и сохраняем полный снимок
	plan, err := s.planRepo.GetPlan(ctx, planID)
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, "Plan not found")
		return
	}

	recomputed := s.engine.Recompute(*plan)
	if err := s.planRepo.ReplacePlan(ctx, &recomputed); err != nil {
		log.Printf("Failed to store recomputed plan: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	if err := s.msgClient.PublishPlan(ctx, planID); err != nil {
		log.Printf("Failed to publish plan event: %v", err)
	}

	s.respondWithJSON(w, http.StatusOK, recomputed)
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	planID := vars["id"]

	// Вместо удаления, помечаем как отмененное
	updates := map[string]any{
		"status":     domain.PlanStatusCancelled,
		"deleted_at": time.Now().UTC(),
	}

	if err := s.planRepo.UpdatePlan(r.Context(), planID, updates); err != nil {
		log.Printf("Failed to delete plan: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to delete plan")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Plan deleted"})
}

// importStockSheet merges an uploaded chemical stock sheet into the plan's
// line items by chemical name, then recomputes the derived fields.
func (s *Server) importStockSheet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	planID := vars["id"]

	// Parse multipart form (max 10 MB of files)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sheetContent := ""
	for fileName, fileHeaders := range r.MultipartForm.File {
		for _, fileHeader := range fileHeaders {
			file, err := fileHeader.Open()
			if err != nil {
				s.respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			defer file.Close()

			content, err := io.ReadAll(file)
			if err != nil {
				s.respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}

			fmt.Printf("Received file: %s, size: %d bytes\n", fileName, len(content))
			if fileName == "sheet" {
				sheetContent = string(content)
			}
		}
	}

	reader := infrastructure.NewStockSheetReader(zap.L())
	lines, err := reader.ReadSheet(sheetContent)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	plan, err := s.planRepo.GetPlan(ctx, planID)
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, "Plan not found")
		return
	}

	byName := make(map[string]infrastructure.StockLine, len(lines))
	for _, line := range lines {
		byName[strings.ToLower(line.ChemicalName)] = line
	}

	matched := 0
	for i, item := range plan.ChemicalRequirements {
		line, ok := byName[strings.ToLower(item.ChemicalName)]
		if !ok {
			continue
		}
		plan.ChemicalRequirements[i].AvailableStock = line.AvailableStock
		plan.ChemicalRequirements[i].UnitPrice = line.UnitPrice
		if line.Supplier != "" {
			plan.ChemicalRequirements[i].Supplier = line.Supplier
		}
		matched++
	}

	recomputed := s.engine.Recompute(*plan)
	if err := s.planRepo.ReplacePlan(ctx, &recomputed); err != nil {
		log.Printf("Failed to store recomputed plan: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	response := map[string]any{
		"plan":    recomputed,
		"matched": matched,
		"lines":   len(lines),
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

// planHistory returns the recompute snapshots of a plan, newest first.
func (s *Server) planHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	planID := vars["id"]

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := parseInt(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	snapshots, err := s.snapshotRepo.ListSnapshots(r.Context(), planID, limit)
	if err != nil {
		log.Printf("Failed to list snapshots: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch plan history")
		return
	}

	response := map[string]any{
		"plan_id":   planID,
		"snapshots": snapshots,
		"count":     len(snapshots),
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) listMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.machineRepo.ListMachines(r.Context())
	if err != nil {
		log.Printf("Failed to list machines: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch machines")
		return
	}

	response := map[string]any{
		"machines": machines,
		"count":    len(machines),
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) createMachine(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	machine := &domain.MachineSchedule{
		MachineNo:      req.MachineNo,
		MachineType:    req.MachineType,
		Capacity:       req.Capacity,
		Status:         domain.MachineStatusAvailable,
		ScheduledPlans: []domain.ScheduledSlot{},
	}

	if err := s.machineRepo.CreateMachine(r.Context(), machine); err != nil {
		log.Printf("Failed to create machine: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create machine")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, machine)
}

// machineOccupancy renders the schedule view: the full hourly grid for a
// date, or a single instant's resolution when a time is given.
func (s *Server) machineOccupancy(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	machines, err := s.machineRepo.ListMachines(r.Context())
	if err != nil {
		log.Printf("Failed to list machines: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch machines")
		return
	}

	if timeOfDay := r.URL.Query().Get("time"); timeOfDay != "" {
		type occupancy struct {
			Machine domain.MachineSchedule `json:"machine"`
			Slot    *domain.ScheduledSlot  `json:"slot,omitempty"`
			Level   planning.StatusLevel   `json:"level"`
		}

		results := make([]occupancy, len(machines))
		for i, machine := range machines {
			entry := occupancy{
				Machine: machine,
				Level:   s.catalog.StatusLevel(machine.Status),
			}
			if slot, ok := planning.ResolveOccupancy(machine.ScheduledPlans, date, timeOfDay); ok {
				slot := slot
				entry.Slot = &slot
			}
			results[i] = entry
		}

		s.respondWithJSON(w, http.StatusOK, map[string]any{
			"date":     date,
			"time":     timeOfDay,
			"machines": results,
		})
		return
	}

	grid := planning.BuildGrid(machines, date, s.catalog)
	response := map[string]any{
		"date":  date,
		"ticks": planning.HourlyTicks(),
		"grid":  grid,
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"service":   "planning-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) apiDocs(w http.ResponseWriter, r *http.Request) {
	docs := map[string]any{
		"title":       "Dyeing Planning API",
		"description": "Production planning for a textile dyeing operation",
		"version":     "1.0.0",
		"endpoints": map[string]any{
			"POST /api/v1/plans":                        "Create a new dyeing plan",
			"GET /api/v1/plans":                         "List plans",
			"GET /api/v1/plans/stats":                   "Dashboard statistics",
			"GET /api/v1/plans/{id}":                    "Get plan by ID",
			"PUT /api/v1/plans/{id}":                    "Update plan (derived fields recomputed)",
			"DELETE /api/v1/plans/{id}":                 "Cancel plan",
			"POST /api/v1/plans/{id}/chemicals/import":  "Import a chemical stock sheet",
			"GET /api/v1/plans/{id}/history":            "Recompute snapshots, newest first",
			"GET /api/v1/machines":                      "List machines",
			"POST /api/v1/machines":                     "Register a machine",
			"GET /api/v1/machines/occupancy":            "Occupancy grid for a date",
		},
		"plan_statuses": []string{
			"draft",
			"scheduled",
			"in-progress",
			"completed",
			"cancelled",
		},
	}

	s.respondWithJSON(w, http.StatusOK, docs)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// Helper functions
func (s *Server) respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, status int, message string) {
	response := map[string]string{"error": message}
	s.respondWithJSON(w, status, response)
}

func parseInt(str string) (int, error) {
	var n int
	_, err := fmt.Sscanf(str, "%d", &n)
	return n, err
}

// Server lifecycle
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.ServerPort,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting REST API server on %s", s.config.ServerPort)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		log.Println("Shutting down API server...")
		return s.server.Shutdown(ctx)
	}
	return nil
}
