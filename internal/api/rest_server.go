package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-editor/internal/editor"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/middleware"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/gin-gonic/gin"
)

// RestServer — HTTP-фасад редактора для UI и инструментов.
type RestServer struct {
	router     *gin.Engine
	sessions   *editor.SessionManager
	resolver   *editor.Resolver
	dispatcher *editor.Dispatcher
	commits    *editor.CommitPipeline
	port       string
	log        *logging.Logger
}

// Config содержит конфигурацию REST-сервера.
type Config struct {
	Port       string // порт для запуска сервера, напр. ":8090"
	Sessions   *editor.SessionManager
	Resolver   *editor.Resolver
	Dispatcher *editor.Dispatcher
	Commits    *editor.CommitPipeline
}

// GenericResponse — стандартный конверт ответа.
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создаёт REST API сервер.
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("editor_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:     router,
		sessions:   config.Sessions,
		resolver:   config.Resolver,
		dispatcher: config.Dispatcher,
		commits:    config.Commits,
		port:       config.Port,
		log:        logging.GetEditorLogger(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")

	sessions := api.Group("/worlds/:worldId/sessions/:sessionId")
	{
		sessions.GET("/state", rs.handleGetState)
		sessions.PUT("/state", rs.handlePutState)
		sessions.DELETE("", rs.handleCloseSession)
		sessions.GET("/block", rs.handleResolveBlock)
		sessions.POST("/dispatch", rs.handleDispatch)
	}

	layers := api.Group("/worlds/:worldId/layers/:layerDataId")
	{
		layers.POST("/apply", rs.handleApply)
		layers.POST("/discard", rs.handleDiscard)
	}

	api.GET("/worlds/:worldId/staging/stats", rs.handleStagingStats)

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// Start запускает сервер (блокирующий вызов).
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}

// Router отдаёт gin.Engine для httptest.
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleGetState возвращает состояние сессии (лениво создавая его)
func (rs *RestServer) handleGetState(c *gin.Context) {
	state, err := rs.sessions.Get(c.Request.Context(), c.Param("worldId"), c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: state})
}

// StateUpdateRequest — частичное обновление состояния сессии.
// nil-поля не трогаются.
type StateUpdateRequest struct {
	EditMode      *bool   `json:"edit_mode,omitempty"`
	Action        *string `json:"action,omitempty"`
	SelectedLayer *string `json:"selected_layer,omitempty"`
	SelectedGroup *int    `json:"selected_group,omitempty"`
	SelectedModel *string `json:"selected_model_id,omitempty"`
}

func (rs *RestServer) handlePutState(c *gin.Context) {
	var req StateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Некорректное тело запроса: " + err.Error()})
		return
	}

	var action *editor.EditAction
	if req.Action != nil {
		a, err := editor.ParseAction(*req.Action)
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
			return
		}
		action = &a
	}

	state, err := rs.sessions.Update(c.Request.Context(), c.Param("worldId"), c.Param("sessionId"), func(s *editor.EditState) {
		if req.EditMode != nil {
			s.EditMode = *req.EditMode
		}
		if action != nil {
			s.Action = *action
		}
		if req.SelectedLayer != nil {
			s.SelectedLayer = *req.SelectedLayer
		}
		if req.SelectedGroup != nil {
			s.SelectedGroup = *req.SelectedGroup
		}
		if req.SelectedModel != nil {
			s.SelectedModelID = *req.SelectedModel
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Состояние обновлено", Data: state})
}

func (rs *RestServer) handleCloseSession(c *gin.Context) {
	err := rs.sessions.Close(c.Request.Context(), c.Param("worldId"), c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сессия закрыта"})
}

// handleResolveBlock возвращает эффективный блок и его происхождение
func (rs *RestServer) handleResolveBlock(c *gin.Context) {
	pos, ok := rs.queryPos(c)
	if !ok {
		return
	}

	b, prov, err := rs.resolver.Resolve(c.Request.Context(), c.Param("worldId"), c.Param("sessionId"), pos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: gin.H{
		"block":      b,
		"provenance": prov,
	}})
}

// DispatchRequest — выполнение инструмента на координате.
type DispatchRequest struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Z      int     `json:"z"`
	Action *string `json:"action,omitempty"` // явный override инструмента
}

func (rs *RestServer) handleDispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Некорректное тело запроса: " + err.Error()})
		return
	}

	var override *editor.EditAction
	if req.Action != nil {
		a, err := editor.ParseAction(*req.Action)
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
			return
		}
		override = &a
	}

	outcome := rs.dispatcher.Dispatch(c.Request.Context(),
		c.Param("worldId"), c.Param("sessionId"),
		vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}, override)

	if outcome.Kind == editor.OutcomeFailed {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: outcome.Err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: gin.H{
		"outcome": outcome.Kind.String(),
		"reason":  outcome.Reason,
	}})
}

func (rs *RestServer) handleApply(c *gin.Context) {
	err := rs.commits.ApplyChanges(c.Request.Context(), c.Param("worldId"), c.Param("layerDataId"))
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Apply запланирован"})
}

func (rs *RestServer) handleDiscard(c *gin.Context) {
	count, err := rs.commits.DiscardChanges(c.Request.Context(), c.Param("worldId"), c.Param("layerDataId"))
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Правки отброшены", Data: gin.H{"count": count}})
}

func (rs *RestServer) handleStagingStats(c *gin.Context) {
	stats, err := rs.commits.GetStatistics(c.Request.Context(), c.Param("worldId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: stats})
}

// queryPos извлекает координаты x/y/z из query-параметров
func (rs *RestServer) queryPos(c *gin.Context) (vec.Vec3, bool) {
	x, errX := strconv.Atoi(c.Query("x"))
	y, errY := strconv.Atoi(c.Query("y"))
	z, errZ := strconv.Atoi(c.Query("z"))
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Параметры x, y, z обязательны и должны быть целыми"})
		return vec.Vec3{}, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, true
}
